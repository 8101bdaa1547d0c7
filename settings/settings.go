// Package settings defines the user settings record of the frame and how its
// fields are addressed by name
package settings

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/aouyang1/iotacanvas/refresh"
)

var (
	ErrUnknownField = errors.New("unknown settings field")
	ErrInvalidValue = errors.New("invalid settings value")
)

// Record is the user-editable configuration of the frame.
type Record struct {
	ArtRefreshEnabled bool   `json:"art_refresh_enabled"`
	ArtRefreshRate    int    `json:"art_refresh_rate"`
	RefreshUnit       string `json:"refresh_unit"`
	AIMarketplaceURL  string `json:"ai_marketplace_url"`
	Timezone          string `json:"timezone"`
	DisplayOffEnabled bool   `json:"display_off_enabled"`
	DisplayOffTime    string `json:"display_off_time"`
	DisplayOnTime     string `json:"display_on_time"`
	GPIOSetup         int    `json:"gpio_setup"`
	GPIOSkip          int    `json:"gpio_skip"`
	GPIOLike          int    `json:"gpio_like"`
}

func Defaults() Record {
	return Record{
		ArtRefreshEnabled: true,
		ArtRefreshRate:    240,
		RefreshUnit:       string(refresh.Hour),
		AIMarketplaceURL:  "http://127.0.0.1:5000",
		DisplayOffEnabled: false,
		DisplayOffTime:    "22:30",
		DisplayOnTime:     "08:00",
		GPIOSetup:         21,
		GPIOSkip:          16,
		GPIOLike:          20,
	}
}

type Kind int

const (
	KindBool Kind = iota
	KindInt
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	default:
		return "string"
	}
}

type Field struct {
	Name  string
	Label string
	Kind  Kind
}

// Fields is every addressable field in display order.
var Fields = []Field{
	{Name: "art_refresh_enabled", Label: "Art refresh", Kind: KindBool},
	{Name: "art_refresh_rate", Label: "Refresh every", Kind: KindInt},
	{Name: "refresh_unit", Label: "Refresh unit", Kind: KindString},
	{Name: "ai_marketplace_url", Label: "AI marketplace URL", Kind: KindString},
	{Name: "timezone", Label: "Timezone", Kind: KindString},
	{Name: "display_off_enabled", Label: "Turn display off", Kind: KindBool},
	{Name: "display_off_time", Label: "Display off at", Kind: KindString},
	{Name: "display_on_time", Label: "Display on at", Kind: KindString},
	{Name: "gpio_setup", Label: "Setup button pin", Kind: KindInt},
	{Name: "gpio_skip", Label: "Skip button pin", Kind: KindInt},
	{Name: "gpio_like", Label: "Like button pin", Kind: KindInt},
}

func Lookup(name string) (Field, bool) {
	for _, f := range Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

func (r *Record) ptr(name string) (any, error) {
	switch name {
	case "art_refresh_enabled":
		return &r.ArtRefreshEnabled, nil
	case "art_refresh_rate":
		return &r.ArtRefreshRate, nil
	case "refresh_unit":
		return &r.RefreshUnit, nil
	case "ai_marketplace_url":
		return &r.AIMarketplaceURL, nil
	case "timezone":
		return &r.Timezone, nil
	case "display_off_enabled":
		return &r.DisplayOffEnabled, nil
	case "display_off_time":
		return &r.DisplayOffTime, nil
	case "display_on_time":
		return &r.DisplayOnTime, nil
	case "gpio_setup":
		return &r.GPIOSetup, nil
	case "gpio_skip":
		return &r.GPIOSkip, nil
	case "gpio_like":
		return &r.GPIOLike, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownField, name)
}

// Get returns the value of the named field.
func (r Record) Get(name string) (any, error) {
	p, err := r.ptr(name)
	if err != nil {
		return nil, err
	}
	switch v := p.(type) {
	case *bool:
		return *v, nil
	case *int:
		return *v, nil
	case *string:
		return *v, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownField, name)
}

// Set assigns value to the named field after coercing it to the field's kind.
// No range or membership checks are done here, see Validate.
func (r *Record) Set(name string, value any) error {
	f, ok := Lookup(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	coerced, err := Coerce(f.Kind, value)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	p, err := r.ptr(name)
	if err != nil {
		return err
	}
	switch dst := p.(type) {
	case *bool:
		*dst = coerced.(bool)
	case *int:
		*dst = coerced.(int)
	case *string:
		*dst = coerced.(string)
	}
	return nil
}

// Coerce converts JSON-decoded or user-typed input to the Go type of kind.
func Coerce(kind Kind, value any) (any, error) {
	switch kind {
	case KindBool:
		switch v := value.(type) {
		case bool:
			return v, nil
		case string:
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				return nil, fmt.Errorf("%w: %q is not a bool", ErrInvalidValue, v)
			}
			return b, nil
		}
	case KindInt:
		switch v := value.(type) {
		case int:
			return v, nil
		case int64:
			return int(v), nil
		case float64:
			if v != math.Trunc(v) {
				return nil, fmt.Errorf("%w: %v is not an integer", ErrInvalidValue, v)
			}
			return int(v), nil
		case string:
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return nil, fmt.Errorf("%w: %q is not an integer", ErrInvalidValue, v)
			}
			return n, nil
		}
	case KindString:
		if v, ok := value.(string); ok {
			return v, nil
		}
	}
	return nil, fmt.Errorf("%w: %v (%T) is not a %s", ErrInvalidValue, value, value, kind)
}

var clockTime = regexp.MustCompile(`^(?:[01]\d|2[0-3]):[0-5]\d$`)

// Validate checks the field value the server is willing to persist.
func Validate(name string, value any) error {
	f, ok := Lookup(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	v, err := Coerce(f.Kind, value)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	switch name {
	case "art_refresh_rate":
		if v.(int) <= 0 {
			return fmt.Errorf("%w: art_refresh_rate must be positive", ErrInvalidValue)
		}
	case "refresh_unit":
		if _, err := refresh.ParseUnit(v.(string)); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidValue, err)
		}
	case "display_off_time", "display_on_time":
		if !clockTime.MatchString(v.(string)) {
			return fmt.Errorf("%w: %s must be HH:MM, got %q", ErrInvalidValue, name, v)
		}
	case "ai_marketplace_url":
		u, err := url.Parse(v.(string))
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%w: ai_marketplace_url must be an absolute url", ErrInvalidValue)
		}
	case "timezone":
		if tz := v.(string); tz != "" {
			if _, err := time.LoadLocation(tz); err != nil {
				return fmt.Errorf("%w: unknown timezone %q", ErrInvalidValue, tz)
			}
		}
	case "gpio_setup", "gpio_skip", "gpio_like":
		if v.(int) < 0 {
			return fmt.Errorf("%w: %s must not be negative", ErrInvalidValue, name)
		}
	}
	return nil
}

// RefreshPeriod is how long an artwork stays up before a new one is fetched.
func (r Record) RefreshPeriod() (time.Duration, error) {
	unit, err := refresh.ParseUnit(r.RefreshUnit)
	if err != nil {
		return 0, err
	}
	return refresh.Period(r.ArtRefreshRate, unit)
}
