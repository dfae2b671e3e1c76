package prop

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/reportscan/capture/pkg/frame"
)

// MediaConstraints represents set of media property constraints.
// A nil field leaves the property unconstrained.
type MediaConstraints struct {
	DeviceID StringConstraint
	VideoConstraints
}

// String prints a one-line description of the constraints.
func (m *MediaConstraints) String() string {
	return prettifyStruct(m)
}

// VideoConstraints represents a video's constraints
type VideoConstraints struct {
	Width, Height IntConstraint
	FrameRate     FloatConstraint
	FrameFormat   FrameFormatConstraint
	FacingMode    FacingModeConstraint
}

// Media stores single set of media properties.
type Media struct {
	DeviceID string
	Video
}

// String prints a one-line description of the media properties.
func (m *Media) String() string {
	return prettifyStruct(m)
}

// Video represents a video's properties
type Video struct {
	Width, Height int
	FrameRate     float32
	FrameFormat   frame.Format
	FacingMode    FacingMode
}

// FitnessDistance calculates fitness of media property and media constraints.
// If no media satisfies the constraints, second return value will be false.
// Reference: https://w3c.github.io/mediacapture-main/#dfn-fitness-distance
func (p *MediaConstraints) FitnessDistance(o Media) (float64, bool) {
	cmps := comparisons{}

	cmps.add(p.DeviceID, o.DeviceID)
	cmps.add(p.Width, o.Width)
	cmps.add(p.Height, o.Height)
	cmps.add(p.FrameFormat, o.FrameFormat)
	cmps.add(p.FacingMode, o.FacingMode)
	// The next comparison is for frame rate. Ignore it if the driver doesn't
	// report one, as many V4L2 cameras don't.
	if o.FrameRate > 0 {
		cmps.add(p.FrameRate, o.FrameRate)
	}

	return cmps.fitnessDistance()
}

type comparisons []struct {
	desired, actual interface{}
}

func (c *comparisons) add(desired, actual interface{}) {
	if desired != nil && !reflect.ValueOf(desired).IsZero() {
		*c = append(*c,
			struct{ desired, actual interface{} }{
				desired, actual,
			},
		)
	}
}

// fitnessDistance is an implementation for https://w3c.github.io/mediacapture-main/#dfn-fitness-distance
func (c *comparisons) fitnessDistance() (float64, bool) {
	var dist float64
	for _, field := range *c {
		var d float64
		var ok bool
		switch c := field.desired.(type) {
		case IntConstraint:
			d, ok = c.Compare(field.actual.(int))
		case StringConstraint:
			d, ok = c.Compare(field.actual.(string))
		case FloatConstraint:
			d, ok = c.Compare(field.actual.(float32))
		case FrameFormatConstraint:
			d, ok = c.Compare(field.actual.(frame.Format))
		case FacingModeConstraint:
			d, ok = c.Compare(field.actual.(FacingMode))
		default:
			panic("unsupported constraint type")
		}
		dist += d
		if !ok {
			return 0, false
		}
	}
	return dist, true
}

// Merge merges all the field values from o to p, except zero values.
func (p *Media) Merge(o Media) {
	rp := reflect.ValueOf(p).Elem()
	ro := reflect.ValueOf(o)

	// merge b fields to a recursively
	var merge func(a, b reflect.Value)
	merge = func(a, b reflect.Value) {
		numFields := a.NumField()
		for i := 0; i < numFields; i++ {
			fieldA := a.Field(i)
			fieldB := b.Field(i)

			// if a is a struct, b is also a struct. Then,
			// we recursively merge them
			if fieldA.Kind() == reflect.Struct {
				merge(fieldA, fieldB)
				continue
			}

			if fieldB.IsZero() {
				continue
			}

			fieldA.Set(fieldB)
		}
	}

	merge(rp, ro)
}

// MergeConstraints merges the ideal or exact values of m into p.
func (p *Media) MergeConstraints(m MediaConstraints) {
	if v, ok := valueOf(m.DeviceID); ok {
		p.DeviceID = v.(string)
	}
	if v, ok := valueOf(m.Width); ok {
		p.Width = v.(int)
	}
	if v, ok := valueOf(m.Height); ok {
		p.Height = v.(int)
	}
	if v, ok := valueOf(m.FrameRate); ok {
		p.FrameRate = v.(float32)
	}
	if v, ok := valueOf(m.FrameFormat); ok {
		p.FrameFormat = v.(frame.Format)
	}
	if v, ok := valueOf(m.FacingMode); ok {
		p.FacingMode = v.(FacingMode)
	}
}

func valueOf(c interface{}) (interface{}, bool) {
	switch c := c.(type) {
	case IntConstraint:
		return c.Value()
	case StringConstraint:
		return c.Value()
	case FloatConstraint:
		return c.Value()
	case FrameFormatConstraint:
		return c.Value()
	case FacingModeConstraint:
		return c.Value()
	}
	return nil, false
}

func prettifyStruct(i interface{}) string {
	var rows []string
	var addRows func(int, reflect.Value)
	addRows = func(level int, obj reflect.Value) {
		typeOf := obj.Type()
		for i := 0; i < obj.NumField(); i++ {
			field := typeOf.Field(i)
			value := obj.Field(i)

			padding := strings.Repeat("  ", level)
			switch value.Kind() {
			case reflect.Struct:
				rows = append(rows, fmt.Sprintf("%s%v:", padding, field.Name))
				addRows(level+1, value)
			case reflect.Interface:
				valueStr := "any"
				if !value.IsNil() {
					valueStr = fmt.Sprint(value)
				}
				rows = append(rows, fmt.Sprintf("%s%v: %s", padding, field.Name, valueStr))
			default:
				rows = append(rows, fmt.Sprintf("%s%v: %v", padding, field.Name, value))
			}
		}
	}

	addRows(0, reflect.ValueOf(i).Elem())
	return strings.Join(rows, "\n")
}
