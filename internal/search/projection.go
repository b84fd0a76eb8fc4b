package search

import (
	"fmt"
	"strings"

	"StyleTranslator/internal/domain"
)

// ProjectionVersion changes whenever the text built below changes; indexes
// built with different versions do not produce comparable scores.
const ProjectionVersion = "v1"

const projectionSep = " | "

type parts []string

func (p *parts) add(s string) {
	if s = strings.TrimSpace(s); s != "" {
		*p = append(*p, s)
	}
}

func (p *parts) addf(format string, value string) {
	if strings.TrimSpace(value) != "" {
		p.add(fmt.Sprintf(format, value))
	}
}

func (p *parts) addList(label string, values []string) {
	if len(values) > 0 {
		p.add(label + ": " + strings.Join(values, ", "))
	}
}

func (p parts) String() string { return strings.Join(p, projectionSep) }

// ItemText is the searchable text embedded for a garment.
func ItemText(item domain.ClothingItem) string {
	var p parts
	p.add(item.Name)
	p.addf("by %s", item.Brand)
	p.add(item.Category)
	p.add(item.Description)
	p.addf("%s fit", item.Fit)
	p.addList("Style", item.StyleTags)
	p.addList("Colors", item.Colors)
	p.addList("Materials", item.Materials)
	return p.String()
}

func BrandText(b domain.Brand) string {
	var p parts
	p.add(b.Name)
	p.add(b.Description)
	p.addList("Aesthetic", b.Aesthetics)
	p.addList("Typical fits", b.TypicalFits)
	p.addList("Known for", b.SignatureItems)
	p.addf("From %s", b.OriginCountry)
	p.addf("%s price range", b.PriceRange)
	return p.String()
}

func DiscussionText(d domain.StyleDiscussion) string {
	var p parts
	p.add(d.Title)
	p.add(d.Content)
	p.addList("Style", d.StyleDescriptors)
	p.addList("Brands", d.MentionedBrands)
	return p.String()
}
