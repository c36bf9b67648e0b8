package tryon

import (
	"net/url"
	"strings"

	"github.com/raushankrgupta/fitting-room/models"
)

const (
	msgInvalidURL   = "Please enter a valid URL"
	msgNeedGarments = "Please provide at least one valid garment URL"
)

// Outfit is the main garment choice: Separates or FullBodyOutfit.
type Outfit interface {
	isOutfit()
}

type Separates struct {
	Top    string
	Bottom string
}

type FullBodyOutfit struct {
	Garment string
}

func (Separates) isOutfit()      {}
func (FullBodyOutfit) isOutfit() {}

// GarmentSelection is the outfit plus the accessories that combine with either mode.
type GarmentSelection struct {
	Outfit Outfit
	Jacket string
	Shoes  string
}

type linkField struct {
	name  string
	value string
}

func (g GarmentSelection) fields() []linkField {
	var fields []linkField
	switch o := g.Outfit.(type) {
	case Separates:
		fields = append(fields, linkField{"topLink", o.Top}, linkField{"bottomLink", o.Bottom})
	case FullBodyOutfit:
		fields = append(fields, linkField{"fullBodyLink", o.Garment})
	}
	return append(fields, linkField{"jacketLink", g.Jacket}, linkField{"shoesLink", g.Shoes})
}

// Validate checks every link of the active mode. It returns a *ValidationError keyed by
// form field, with "garments" set when no valid link was given at all.
func (g GarmentSelection) Validate() error {
	verr := &ValidationError{}
	provided := 0
	for _, f := range g.fields() {
		if f.value == "" {
			continue
		}
		if !IsValidURL(f.value) {
			verr.add(f.name, msgInvalidURL)
			continue
		}
		provided++
	}
	if provided == 0 {
		verr.add("garments", msgNeedGarments)
	}
	if verr.empty() {
		return nil
	}
	return verr
}

// ApplyTo copies the links of the active mode onto the record. Fields of the other mode stay empty.
func (g GarmentSelection) ApplyTo(t *models.TryOn) {
	switch o := g.Outfit.(type) {
	case Separates:
		t.TopGarment, t.BottomGarment = o.Top, o.Bottom
	case FullBodyOutfit:
		t.FullBodyGarment = o.Garment
	}
	t.Jacket, t.Shoes = g.Jacket, g.Shoes
}

// IsValidURL reports whether s is an absolute URL with a scheme and a host.
func IsValidURL(s string) bool {
	if strings.TrimSpace(s) != s {
		return false
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return u.Scheme != "" && u.Host != ""
}
