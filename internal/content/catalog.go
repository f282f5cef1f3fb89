package content

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml catalog.schema.json
var catalogFS embed.FS

// Catalog is the static copy every provider draws from.
type Catalog struct {
	Company    Company     `yaml:"company"`
	Links      Links       `yaml:"links"`
	Regular    Regular     `yaml:"regular"`
	Countries  []Country   `yaml:"countries"`
	Recipients []Recipient `yaml:"recipients"`
	Followup   Followup    `yaml:"followup"`
	Product    Product     `yaml:"product"`
}

type Company struct {
	Name         string `yaml:"name"`
	Website      string `yaml:"website"`
	WebsiteLabel string `yaml:"website_label"`
	Phone        string `yaml:"phone"`
	PhoneLink    string `yaml:"phone_link"`
	WhatsApp     string `yaml:"whatsapp"`
	SenderName   string `yaml:"sender_name"`
	SenderTitle  string `yaml:"sender_title"`
}

type Links struct {
	Calendar string `yaml:"calendar"`
	WhatsApp string `yaml:"whatsapp"`
	Trial    string `yaml:"trial"`
	Website  string `yaml:"website"`
}

type Regular struct {
	Subject string `yaml:"subject"`
}

// Country carries the market framing used in prompts and follow-ups.
type Country struct {
	Key         string   `yaml:"key"`
	Aliases     []string `yaml:"aliases"`
	Context     string   `yaml:"context"`
	Regulations string   `yaml:"regulations"`
	Initiatives []string `yaml:"initiatives"`
}

// Recipient describes an audience. Focus and Benefits may reference
// {context}, {initiative} and {regulations} of the target country.
type Recipient struct {
	Key      string   `yaml:"key"`
	Focus    string   `yaml:"focus"`
	Benefits []string `yaml:"benefits"`
}

// Title returns the human readable recipient name, e.g. "Waste Management".
func (r Recipient) Title() string {
	return cases.Title(language.English).String(strings.ReplaceAll(r.Key, "_", " "))
}

type Followup struct {
	Subject string                                `yaml:"subject"`
	Stages  []Stage                               `yaml:"stages"`
	Intros  map[string]map[string]string          `yaml:"intros"`
	Content map[string]map[string]CountryFollowup `yaml:"content"`
}

type Stage struct {
	Key           string `yaml:"key"`
	SubjectPrefix string `yaml:"subject_prefix"`
	MainContent   string `yaml:"main_content"`
}

type CountryFollowup struct {
	Content string `yaml:"content"`
	CTA     string `yaml:"cta"`
}

type Product struct {
	Name     string         `yaml:"name"`
	Subtitle string         `yaml:"subtitle"`
	Subject  string         `yaml:"subject"`
	Specs    []SpecCategory `yaml:"specs"`
	Features []string       `yaml:"features"`
}

type SpecCategory struct {
	Category string     `yaml:"category"`
	Items    []SpecItem `yaml:"items"`
}

type SpecItem struct {
	Key   string `yaml:"key"`
	Value string `yaml:"value"`
}

// LoadCatalog parses and validates the embedded catalog.
func LoadCatalog() (*Catalog, error) {
	data, err := catalogFS.ReadFile("catalog.yaml")
	if err != nil {
		return nil, errors.Join(ErrCatalog, err)
	}
	return ParseCatalog(data)
}

// ParseCatalog validates raw YAML against the catalog schema and decodes it.
func ParseCatalog(data []byte) (*Catalog, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: parse yaml: %v", ErrCatalog, err)
	}
	if err := validateCatalog(raw); err != nil {
		return nil, err
	}

	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrCatalog, err)
	}
	if err := c.check(); err != nil {
		return nil, err
	}
	return &c, nil
}

func validateCatalog(raw any) error {
	schemaData, err := catalogFS.ReadFile("catalog.schema.json")
	if err != nil {
		return errors.Join(ErrCatalog, err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("catalog.schema.json", bytes.NewReader(schemaData)); err != nil {
		return fmt.Errorf("%w: add schema: %v", ErrCatalog, err)
	}
	schema, err := compiler.Compile("catalog.schema.json")
	if err != nil {
		return fmt.Errorf("%w: compile schema: %v", ErrCatalog, err)
	}

	// Round trip through JSON so the validator sees plain JSON types.
	b, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCatalog, err)
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("%w: %v", ErrCatalog, err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("%w: %v", ErrCatalog, err)
	}
	return nil
}

// check enforces the cross references a JSON schema cannot express.
func (c *Catalog) check() error {
	for _, r := range c.Recipients {
		intros, ok := c.Followup.Intros[r.Key]
		if !ok {
			return fmt.Errorf("%w: no follow-up intros for recipient %q", ErrCatalog, r.Key)
		}
		for _, s := range c.Followup.Stages {
			if intros[s.Key] == "" {
				return fmt.Errorf("%w: no %s intro for recipient %q", ErrCatalog, s.Key, r.Key)
			}
		}
		for _, country := range c.Countries {
			if _, ok := c.Followup.Content[country.Key][r.Key]; !ok {
				return fmt.Errorf("%w: no follow-up content for %s/%s", ErrCatalog, country.Key, r.Key)
			}
		}
	}
	return nil
}

// Country resolves a country by key or alias, case-insensitively. Unknown
// names fall back to the first country and report false.
func (c *Catalog) Country(name string) (Country, bool) {
	name = strings.TrimSpace(name)
	for _, country := range c.Countries {
		if strings.EqualFold(country.Key, name) {
			return country, true
		}
		for _, alias := range country.Aliases {
			if strings.EqualFold(alias, name) {
				return country, true
			}
		}
	}
	return c.Countries[0], false
}

// Recipient resolves a recipient type. Unknown keys fall back to the first
// recipient and report false.
func (c *Catalog) Recipient(key string) (Recipient, bool) {
	key = strings.ToLower(strings.TrimSpace(key))
	for _, r := range c.Recipients {
		if r.Key == key {
			return r, true
		}
	}
	return c.Recipients[0], false
}

// Stage returns the follow-up stage with the given key.
func (c *Catalog) Stage(key string) (Stage, bool) {
	key = strings.ToLower(strings.TrimSpace(key))
	for _, s := range c.Followup.Stages {
		if s.Key == key {
			return s, true
		}
	}
	return Stage{}, false
}

// Fill replaces {context}, {initiative}, {regulations} and {country} in s.
func (c Country) Fill(s string) string {
	initiative := ""
	if len(c.Initiatives) > 0 {
		initiative = c.Initiatives[0]
	}
	return strings.NewReplacer(
		"{context}", c.Context,
		"{initiative}", initiative,
		"{regulations}", c.Regulations,
		"{country}", c.Key,
	).Replace(s)
}

// KnowledgeChunk renders the product as a knowledge-base entry for the
// vector index.
func (p Product) KnowledgeChunk() string {
	title := cases.Title(language.English)

	var b strings.Builder
	fmt.Fprintf(&b, "SensIQ Product Details\n- Title: %s\n- Subtitle: %s\n", p.Name, p.Subtitle)
	b.WriteString("- Technical Specifications:\n")
	for _, cat := range p.Specs {
		fmt.Fprintf(&b, "  * %s:\n", title.String(cat.Category))
		for _, item := range cat.Items {
			fmt.Fprintf(&b, "    > %s: %s\n", SpecLabel(item.Key), item.Value)
		}
	}
	b.WriteString("- Key Features:\n")
	for _, f := range p.Features {
		fmt.Fprintf(&b, "  * %s\n", f)
	}
	return strings.TrimRight(b.String(), "\n")
}

// SpecLabel turns a spec key such as "sleep_current" into "Sleep Current".
func SpecLabel(key string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(key, "_", " "))
}
