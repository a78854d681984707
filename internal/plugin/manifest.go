package plugin

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Manifest mirrors mhPlugin.json. Unknown fields are preserved by callers that
// work on the raw document; this struct only covers the declared schema.
type Manifest struct {
	WindowID    string   `json:"windowId" validate:"required,window_id"`
	Title       string   `json:"title" validate:"required"`
	Description string   `json:"description"`
	Version     string   `json:"version,omitempty" validate:"omitempty,semver"`
	Author      string   `json:"author,omitempty"`
	Email       string   `json:"email,omitempty" validate:"omitempty,email"`
	Tags        []string `json:"tags,omitempty"`
	Category    string   `json:"category,omitempty"`
	Size        []int64  `json:"size,omitempty" validate:"omitempty,len=2,dive,gt=0"`
	Position    []int64  `json:"position,omitempty" validate:"omitempty,len=2"`
	AlwaysOnTop *bool    `json:"alwaysOnTop,omitempty"`
	Resizable   *bool    `json:"resizable,omitempty"`
	Icon        string   `json:"icon,omitempty"`
}

// Default window geometry applied when a manifest omits or truncates size/position.
var (
	DefaultSize     = []int64{800, 600}
	DefaultPosition = []int64{-1, -1}
)

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate
)

func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New()
		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("window_id", func(fl validator.FieldLevel) bool {
			return IsValidWindowID(fl.Field().String())
		})
		validateInst = v
	})
	return validateInst
}

// ParseManifest decodes mhPlugin.json content.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse %s: %w", ManifestFile, err)
	}
	return &m, nil
}

// Validate checks the manifest against its schema and returns one message per
// violated field, sorted for stable output.
func (m *Manifest) Validate() []string {
	if m == nil {
		return []string{"manifest is missing"}
	}
	err := validatorInstance().Struct(m)
	if err == nil {
		return nil
	}

	var issues []string
	if verrs, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range verrs {
			issues = append(issues, describeFieldError(fe))
		}
	} else {
		issues = append(issues, err.Error())
	}
	sort.Strings(issues)
	return issues
}

func describeFieldError(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "window_id":
		return fmt.Sprintf("%s %q must contain only letters, digits, '-' or '_'", field, fe.Value())
	case "semver":
		return fmt.Sprintf("%s %q is not a semantic version", field, fe.Value())
	case "email":
		return fmt.Sprintf("%s %q is not a valid email address", field, fe.Value())
	case "len":
		return fmt.Sprintf("%s must have exactly %s values", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s values must be greater than %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

// PackageSummary is the normalized manifest view returned when inspecting a package.
type PackageSummary struct {
	WindowID    string   `json:"windowId"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Version     string   `json:"version,omitempty"`
	Author      string   `json:"author,omitempty"`
	Email       string   `json:"email,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Category    string   `json:"category,omitempty"`
	Size        []int64  `json:"size,omitempty"`
	Position    []int64  `json:"position,omitempty"`
	AlwaysOnTop *bool    `json:"alwaysOnTop,omitempty"`
	Resizable   *bool    `json:"resizable,omitempty"`
	Icon        string   `json:"icon,omitempty"`
}

// PackageInfo describes a plugin archive without installing it.
type PackageInfo struct {
	Size   int64          `json:"size"`
	Plugin PackageSummary `json:"pluginInfo"`
	Issues []string       `json:"issues,omitempty"`
}

// Summary returns the normalized view. Size and position fall back to defaults
// when present but shorter than two values.
func (m *Manifest) Summary() PackageSummary {
	s := PackageSummary{
		WindowID:    m.WindowID,
		Name:        m.Title,
		Description: m.Description,
		Version:     m.Version,
		Author:      m.Author,
		Email:       m.Email,
		Tags:        m.Tags,
		Category:    m.Category,
		AlwaysOnTop: m.AlwaysOnTop,
		Resizable:   m.Resizable,
		Icon:        m.Icon,
	}
	if m.Size != nil {
		s.Size = pair(m.Size, DefaultSize)
	}
	if m.Position != nil {
		s.Position = pair(m.Position, DefaultPosition)
	}
	return s
}

func pair(values, fallback []int64) []int64 {
	if len(values) < 2 {
		return append([]int64(nil), fallback...)
	}
	return []int64{values[0], values[1]}
}
