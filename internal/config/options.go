package config

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Sheet names read by the record builder
const (
	SheetCategories = "Categories"
	SheetBills      = "Bills"
	SheetEvents     = "Events"
)

// Canonical field names produced by field translation
const (
	FieldID             = "id"
	FieldTitle          = "title"
	FieldShortTitle     = "shortTitle"
	FieldDescription    = "description"
	FieldLinks          = "links"
	FieldImage          = "image"
	FieldBill           = "bill"
	FieldCategories     = "categories"
	FieldCompanionBill  = "companionBill"
	FieldConferenceBill = "conferenceBill"
	FieldChamber        = "chamber"
	FieldAction         = "action"
	FieldDate           = "date"
)

// FieldTranslations maps an entity (categories, bills, events) to its
// canonical-name -> sheet-column mapping.
type FieldTranslations map[string]map[string]string

// Options tune how spreadsheet rows and official bills are interpreted
type Options struct {
	MaxBills              int
	RecentChangeThreshold int
	BillNumberFormat      *regexp.Regexp
	DetectCompanionBill   *regexp.Regexp
	// CompanionFunc replaces DetectCompanionBill when set. It returns a
	// candidate bill number (or "") that is still validated.
	CompanionFunc     func(text string) string
	SubstituteMatch   *regexp.Regexp
	FieldTranslations FieldTranslations
	WordTranslations  map[string]string
}

// DefaultOptions returns the options used when no file overrides them
func DefaultOptions() Options {
	return Options{
		MaxBills:              30,
		RecentChangeThreshold: 7,
		BillNumberFormat:      regexp.MustCompile(`^[A-Z]+ [1-9][0-9]*$`),
		DetectCompanionBill:   regexp.MustCompile(`([A-Z]+ [1-9][0-9]*)`),
		SubstituteMatch:       regexp.MustCompile(`(?i)substituted`),
		FieldTranslations: FieldTranslations{
			"categories": {
				FieldID:          "categoryid",
				FieldTitle:       "title",
				FieldShortTitle:  "shorttitle",
				FieldDescription: "description",
				FieldLinks:       "links",
				FieldImage:       "image",
			},
			"bills": {
				FieldBill:           "bill",
				FieldTitle:          "title",
				FieldDescription:    "description",
				FieldCategories:     "categories",
				FieldLinks:          "links",
				FieldCompanionBill:  "companionbill",
				FieldConferenceBill: "conferencebill",
			},
			"events": {
				FieldBill:    "bill",
				FieldChamber: "chamber",
				FieldAction:  "action",
				FieldDate:    "date",
				FieldLinks:   "links",
			},
		},
		WordTranslations: map[string]string{
			"upper":      "Senate",
			"lower":      "House",
			"conference": "Conference",
			"signed":     "Signed by Governor",
			"recent":     "Recently updated",
		},
	}
}

// pattern is a YAML scalar that is either a regular expression or the
// boolean false, which disables the feature.
type pattern struct {
	re       *regexp.Regexp
	disabled bool
}

func (p *pattern) UnmarshalYAML(node *yaml.Node) error {
	if node.ShortTag() == "!!bool" {
		var on bool
		if err := node.Decode(&on); err != nil {
			return err
		}
		if on {
			return fmt.Errorf("line %d: pattern may be a string or false", node.Line)
		}
		p.disabled = true
		return nil
	}

	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	re, err := regexp.Compile(s)
	if err != nil {
		return fmt.Errorf("line %d: invalid pattern %q: %w", node.Line, s, err)
	}
	p.re = re
	return nil
}

// fileOptions mirrors the YAML layout; nil fields keep their defaults
type fileOptions struct {
	MaxBills              *int              `yaml:"max_bills"`
	RecentChangeThreshold *int              `yaml:"recent_change_threshold"`
	BillNumberFormat      *pattern          `yaml:"bill_number_format"`
	DetectCompanionBill   *pattern          `yaml:"detect_companion_bill"`
	SubstituteMatch       *pattern          `yaml:"substitute_match"`
	FieldTranslations     FieldTranslations `yaml:"field_translations"`
	WordTranslations      map[string]string `yaml:"word_translations"`
}

// LoadOptions reads a YAML options file over DefaultOptions. An empty
// path returns the defaults.
func LoadOptions(path string) (Options, error) {
	opts := DefaultOptions()
	if path == "" {
		return opts, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return opts, fmt.Errorf("failed to read options file: %w", err)
	}

	return ParseOptions(data)
}

// ParseOptions decodes YAML options over DefaultOptions
func ParseOptions(data []byte) (Options, error) {
	opts := DefaultOptions()

	var f fileOptions
	if err := yaml.Unmarshal(data, &f); err != nil {
		return opts, fmt.Errorf("failed to parse options: %w", err)
	}

	if f.MaxBills != nil {
		if *f.MaxBills < 1 {
			return opts, fmt.Errorf("max_bills must be positive, got %d", *f.MaxBills)
		}
		opts.MaxBills = *f.MaxBills
	}
	if f.RecentChangeThreshold != nil {
		opts.RecentChangeThreshold = *f.RecentChangeThreshold
	}
	if f.BillNumberFormat != nil {
		if f.BillNumberFormat.disabled {
			return opts, fmt.Errorf("bill_number_format cannot be disabled")
		}
		opts.BillNumberFormat = f.BillNumberFormat.re
	}
	if f.DetectCompanionBill != nil {
		opts.DetectCompanionBill = f.DetectCompanionBill.re
	}
	if f.SubstituteMatch != nil {
		opts.SubstituteMatch = f.SubstituteMatch.re
	}

	for entity, fields := range f.FieldTranslations {
		if opts.FieldTranslations[entity] == nil {
			opts.FieldTranslations[entity] = make(map[string]string)
		}
		for canonical, source := range fields {
			opts.FieldTranslations[entity][canonical] = source
		}
	}
	for k, v := range f.WordTranslations {
		opts.WordTranslations[k] = v
	}

	return opts, nil
}

// Translate returns the display label for word, or word itself
func (o Options) Translate(word string) string {
	if label, ok := o.WordTranslations[word]; ok {
		return label
	}
	return word
}
