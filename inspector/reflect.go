package inspector

import (
	"fmt"
	"image/color"
	"reflect"
	"strconv"
	"strings"

	"github.com/pthm-cable/showfx/perimeter"
)

// Widget selects how a component field is drawn.
type Widget int

const (
	WidgetAuto Widget = iota
	WidgetLabel
	WidgetBar
	WidgetBool
	WidgetSwatch
	WidgetPoint
	WidgetSkip
)

var widgetNames = map[string]Widget{
	"label":  WidgetLabel,
	"bar":    WidgetBar,
	"bool":   WidgetBool,
	"swatch": WidgetSwatch,
	"point":  WidgetPoint,
	"skip":   WidgetSkip,
}

var (
	colorType = reflect.TypeOf(color.RGBA{})
	pointType = reflect.TypeOf(perimeter.Point{})
)

// Tag is a parsed `inspect` struct tag.
type Tag struct {
	Widget Widget
	Format string  // fmt verb for labels; empty uses FormatValue defaults
	Max    float64 // bar full scale
}

// Field is one exported component field and how to draw it.
type Field struct {
	Name  string
	Value any
	Tag
}

// ParseTag parses `inspect:"widget[,fmt:<verb>][,max:<n>]"`. Unknown
// widgets fall back to WidgetAuto and unknown options are ignored.
func ParseTag(tag string) Tag {
	t := Tag{Max: 1}
	if tag == "" {
		return t
	}

	name, rest, _ := strings.Cut(tag, ",")
	t.Widget = widgetNames[strings.TrimSpace(name)]

	for _, opt := range strings.Split(rest, ",") {
		key, val, ok := strings.Cut(strings.TrimSpace(opt), ":")
		if !ok {
			continue
		}
		switch key {
		case "fmt":
			t.Format = val
		case "max":
			if m, err := strconv.ParseFloat(val, 64); err == nil && m > 0 {
				t.Max = m
			}
		}
	}
	return t
}

// ExtractFields lists the exported fields of a component struct or a
// pointer to one. Anything else yields nil.
func ExtractFields(component any) []Field {
	v := reflect.ValueOf(component)
	if v.Kind() == reflect.Pointer {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil
	}

	t := v.Type()
	var fields []Field
	for i := 0; i < v.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		tag := ParseTag(sf.Tag.Get("inspect"))
		if tag.Widget == WidgetSkip {
			continue
		}
		fv := v.Field(i)
		if tag.Widget == WidgetAuto {
			tag.Widget = detectWidget(fv.Type())
		}
		fields = append(fields, Field{Name: sf.Name, Value: fv.Interface(), Tag: tag})
	}
	return fields
}

func detectWidget(t reflect.Type) Widget {
	switch {
	case t == colorType:
		return WidgetSwatch
	case t == pointType:
		return WidgetPoint
	case t.Kind() == reflect.Bool:
		return WidgetBool
	default:
		return WidgetLabel
	}
}

// FormatValue renders value with format, or with two decimals for floats
// and %v for everything else when format is empty.
func FormatValue(value any, format string) string {
	if format != "" {
		return fmt.Sprintf(format, value)
	}
	switch value.(type) {
	case float32, float64:
		return fmt.Sprintf("%.2f", value)
	default:
		return fmt.Sprint(value)
	}
}

// FloatValue converts any numeric value to float64.
func FloatValue(value any) (float64, bool) {
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		return v.Float(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint()), true
	default:
		return 0, false
	}
}

// drawable reports whether the field value fits its widget. Mismatches
// are drawn as labels.
func (f Field) drawable() Widget {
	switch f.Widget {
	case WidgetBar:
		if _, ok := FloatValue(f.Value); ok {
			return WidgetBar
		}
	case WidgetSwatch:
		if _, ok := f.Value.(color.RGBA); ok {
			return WidgetSwatch
		}
	case WidgetPoint:
		if _, ok := f.Value.(perimeter.Point); ok {
			return WidgetPoint
		}
	case WidgetBool:
		if _, ok := f.Value.(bool); ok {
			return WidgetBool
		}
	}
	return WidgetLabel
}
