package garments

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// site holds the selectors that find the product title and main image on one shop's pages.
type site struct {
	name   string
	hosts  []string
	title  []string
	images []imageRule
}

type imageRule struct {
	selector string
	attrs    []string
}

// Pages of unknown shops, and known shops whose markup changed, fall back to these.
var genericSite = site{
	name:  "generic",
	title: []string{"meta[property='og:title']", "meta[name='twitter:title']", "title"},
	images: []imageRule{
		{selector: "meta[property='og:image']", attrs: []string{"content"}},
		{selector: "meta[property='og:image:url']", attrs: []string{"content"}},
		{selector: "meta[name='twitter:image']", attrs: []string{"content"}},
		{selector: "link[rel='image_src']", attrs: []string{"href"}},
		{selector: "#landingImage", attrs: []string{"data-old-hires", "src"}},
	},
}

var knownSites = []site{
	{
		name:  "amazon",
		hosts: []string{"amazon", "amzn"},
		title: []string{"#productTitle"},
		images: []imageRule{
			{selector: "#landingImage", attrs: []string{"data-old-hires", "src"}},
			{selector: "#imgBlkFront", attrs: []string{"src"}},
		},
	},
	{
		name:  "flipkart",
		hosts: []string{"flipkart"},
		title: []string{".B_NuCI", "h1.yhB1nd span", "h1"},
		images: []imageRule{
			{selector: "img._396cs4", attrs: []string{"src"}},
			{selector: "img._2r_T1I", attrs: []string{"src"}},
		},
	},
	{
		name:  "myntra",
		hosts: []string{"myntra"},
		title: []string{".pdp-title", ".pdp-name"},
		images: []imageRule{
			{selector: ".image-grid-image", attrs: []string{"style"}},
		},
	},
	{
		name:  "tatacliq",
		hosts: []string{"tatacliq"},
		title: []string{"h1.ProductDescriptionPage__productName", ".ProductDetailsMainCard__productName"},
		images: []imageRule{
			{selector: "img.ImageGallery__image", attrs: []string{"src"}},
		},
	},
	{
		name:  "peterengland",
		hosts: []string{"peterengland"},
		title: []string{"h1.pdp-title", ".ProductDetails__productName"},
		images: []imageRule{
			{selector: ".Start-image-gallery img", attrs: []string{"src", "data-src"}},
			{selector: ".slick-track img", attrs: []string{"src", "data-src"}},
		},
	},
}

func siteFor(host string) (site, bool) {
	host = strings.ToLower(host)
	for _, s := range knownSites {
		for _, h := range s.hosts {
			if strings.Contains(host, h) {
				return s, true
			}
		}
	}
	return site{}, false
}

func (s site) findTitle(doc *goquery.Document) string {
	for _, sel := range s.title {
		node := doc.Find(sel).First()
		if node.Length() == 0 {
			continue
		}
		text := node.AttrOr("content", "")
		if text == "" {
			text = node.Text()
		}
		if text = strings.TrimSpace(text); text != "" {
			return text
		}
	}
	return ""
}

func (s site) findImage(doc *goquery.Document) string {
	for _, rule := range s.images {
		node := doc.Find(rule.selector).First()
		if node.Length() == 0 {
			continue
		}
		for _, attr := range rule.attrs {
			value := strings.TrimSpace(node.AttrOr(attr, ""))
			if attr == "style" {
				value = backgroundImage(value)
			}
			if value != "" {
				return value
			}
		}
	}
	return ""
}

// backgroundImage extracts the url from a `background-image: url("...")` style.
func backgroundImage(style string) string {
	start := strings.Index(style, "url(")
	if start == -1 {
		return ""
	}
	start += len("url(")
	end := strings.Index(style[start:], ")")
	if end == -1 {
		return ""
	}
	return strings.Trim(style[start:start+end], "\"' ")
}

// extract reads the title and image of a product page, trying the shop's own selectors first.
func extract(host string, doc *goquery.Document) (title, image string) {
	if s, ok := siteFor(host); ok {
		title, image = s.findTitle(doc), s.findImage(doc)
	}
	if title == "" {
		title = genericSite.findTitle(doc)
	}
	if image == "" {
		image = genericSite.findImage(doc)
	}
	return title, image
}
