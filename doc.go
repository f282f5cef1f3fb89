// Package coldmail assembles the cold email service: content generation,
// single and bulk sending, and the HTTP API in front of them.
//
// Configuration is read once from the environment:
//
//	cfg, err := coldmail.Load()
//	if err != nil {
//	    return err
//	}
//
//	svc, err := coldmail.New(ctx, cfg, log)
//	if err != nil {
//	    return err
//	}
//	return svc.Run(ctx)
//
// GROQ_API_KEY and PINECONE_API_KEY are always required. EMAIL_PASSWORD is
// required for the default smtp transport and RESEND_API_KEY for
// MAIL_TRANSPORT=resend.
//
// # Optional backends
//
// REDIS_URL moves the retrieval cache from process memory to Redis.
// DATABASE_URL enables the delivery journal, which records every bulk row
// outcome in Postgres and serves it at /api/job-deliveries/{id}. S3_BUCKET
// stores uploads in S3 instead of UPLOAD_DIR.
//
// # Shutdown
//
// Run stops the HTTP server first, then cancels running bulk jobs and drains
// the worker pool, stops the scheduler and finally closes Redis and Postgres.
package coldmail
