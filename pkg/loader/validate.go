package loader

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	schemagen "github.com/invopop/jsonschema"
	"github.com/kaptinlin/jsonschema"

	"github.com/gnana997/tsdocgen/pkg/codegen"
)

// optionsSchema is the JSON schema of Options, reflected once and compiled
// for validation.
type optionsSchema struct {
	reflected *schemagen.Schema
	compiled  *jsonschema.Schema
	document  []byte
}

var loadSchema = sync.OnceValues(func() (*optionsSchema, error) {
	reflector := &schemagen.Reflector{
		AllowAdditionalProperties:  false,
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
		Anonymous:                  true,
	}
	reflected := reflector.Reflect(&Options{})
	reflected.Title = "tsdocgen loader options"

	document, err := json.MarshalIndent(reflected, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("loader: encode options schema: %w", err)
	}
	compiled, err := jsonschema.NewCompiler().Compile(document)
	if err != nil {
		return nil, fmt.Errorf("loader: compile options schema: %w", err)
	}
	return &optionsSchema{reflected: reflected, compiled: compiled, document: document}, nil
})

var structValidator = sync.OnceValue(func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	// Registration only fails for empty tags or nil functions.
	_ = v.RegisterValidation("regexp", func(fl validator.FieldLevel) bool {
		_, err := regexp.Compile(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("jsmember", func(fl validator.FieldLevel) bool {
		return codegen.IsMemberPath(fl.Field().String())
	})
	return v
})

// Schema returns the JSON schema of loader options.
func Schema() ([]byte, error) {
	s, err := loadSchema()
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), s.document...), nil
}

// Validate checks raw loader options. A nil or empty map is valid.
func Validate(raw map[string]any) error {
	_, err := DecodeOptions(raw)
	return err
}

// DecodeOptions validates raw loader options and decodes them. Defaults
// are not applied. Every failure is a *ConfigurationError.
func DecodeOptions(raw map[string]any) (Options, error) {
	if len(raw) == 0 {
		return Options{}, nil
	}

	s, err := loadSchema()
	if err != nil {
		return Options{}, err
	}

	normalized, err := normalize(raw)
	if err != nil {
		return Options{}, &ConfigurationError{Reason: "options must be a JSON object", Err: err}
	}

	if err := s.checkShape(normalized); err != nil {
		return Options{}, err
	}

	var opts Options
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &opts,
		TagName:     "json",
		ErrorUnused: true,
	})
	if err != nil {
		return Options{}, fmt.Errorf("loader: options decoder: %w", err)
	}
	if err := decoder.Decode(normalized); err != nil {
		return Options{}, &ConfigurationError{Reason: err.Error(), Err: err}
	}

	if err := checkValues(opts); err != nil {
		return Options{}, err
	}
	return opts, nil
}

// normalize round-trips raw through JSON so Go slices, YAML maps and
// numbers reach the schema validator in their JSON form.
func normalize(raw map[string]any) (map[string]any, error) {
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// checkShape rejects unknown keys and values of the wrong JSON type,
// naming the first offending key in sorted order.
func (s *optionsSchema) checkShape(raw map[string]any) error {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if _, ok := s.reflected.Properties.Get(k); !ok {
			return &ConfigurationError{
				Key:      k,
				Expected: "a recognized option (" + strings.Join(s.optionNames(), ", ") + ")",
				Reason:   "unknown option",
			}
		}
	}

	if result := s.compiled.Validate(raw); result.Valid {
		return nil
	}
	for _, k := range keys {
		if result := s.compiled.Validate(map[string]any{k: raw[k]}); !result.Valid {
			return &ConfigurationError{
				Key:      k,
				Expected: s.expected(k),
				Reason:   fmt.Sprintf("got %s", describeValue(raw[k])),
			}
		}
	}
	return &ConfigurationError{Reason: "options do not match the schema"}
}

func (s *optionsSchema) optionNames() []string {
	names := make([]string, 0, s.reflected.Properties.Len())
	for pair := s.reflected.Properties.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	return names
}

// expected describes the schema shape of one option.
func (s *optionsSchema) expected(key string) string {
	prop, ok := s.reflected.Properties.Get(key)
	if !ok || prop == nil {
		return ""
	}
	switch prop.Type {
	case "array":
		if prop.Items != nil && prop.Items.Type != "" {
			return "array of " + prop.Items.Type
		}
		return "array"
	case "object":
		if prop.Properties != nil && prop.Properties.Len() > 0 {
			var fields []string
			for pair := prop.Properties.Oldest(); pair != nil; pair = pair.Next() {
				fields = append(fields, pair.Key)
			}
			return "object with " + strings.Join(fields, ", ")
		}
		return "object"
	default:
		return prop.Type
	}
}

func describeValue(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case float64:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	}
	return fmt.Sprintf("%T", v)
}

// checkValues applies the rules JSON schema cannot express: patterns must
// compile and the collection name must be a JavaScript identifier or a
// dotted member path.
func checkValues(opts Options) error {
	err := structValidator().Struct(opts)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &ConfigurationError{Reason: err.Error(), Err: err}
	}

	fe := verrs[0]
	key, _, _ := strings.Cut(fe.Field(), "[")
	cfgErr := &ConfigurationError{Key: key, Err: err}
	switch fe.Tag() {
	case "regexp":
		cfgErr.Expected = "array of regular expressions"
		cfgErr.Reason = fmt.Sprintf("%q does not compile", fe.Value())
	case "jsmember":
		cfgErr.Expected = "a JavaScript identifier or member path"
		cfgErr.Reason = fmt.Sprintf("got %q", fe.Value())
	default:
		cfgErr.Reason = fe.Error()
	}
	return cfgErr
}
