package mapview

import (
	"bytes"
	"html/template"
	"strconv"
	"strings"

	"github.com/sabawaheed27/motofix-europe/internal/domain"
)

var popupTmpl = template.Must(template.New("popup").Parse(
	`<div class="map-popup">` +
		`<h3>{{.Name}}</h3>` +
		`<p><strong>{{.City}}, {{.Country}}</strong></p>` +
		`{{if .Address}}<p class="address">{{.Address}}</p>{{end}}` +
		`{{if .Rating}}<div class="rating"><span class="star">&#9733;</span> <span>{{.Rating}}</span>` +
		`{{if .Reviews}} <span class="reviews">({{.Reviews}} reviews)</span>{{end}}</div>{{end}}` +
		`<div class="links">` +
		`{{if .Phone}}<a href="{{.Call}}">Call</a>{{end}}` +
		`{{if .Website}}<a href="{{.Website}}" target="_blank" rel="noopener noreferrer">Website</a>{{end}}` +
		`</div></div>`))

type popupData struct {
	Name, City, Country, Address string
	Rating, Reviews              string
	Phone                        string
	Call                         template.URL
	Website                      string
}

// Popup renders the escaped info panel of a shop.
func Popup(s domain.Shop) string {
	d := popupData{Name: s.Name, City: s.City, Country: s.Country}
	if s.Address != nil {
		d.Address = *s.Address
	}
	if s.Rating != nil {
		d.Rating = strconv.FormatFloat(*s.Rating, 'f', 1, 64)
		if s.ReviewsCount != nil && *s.ReviewsCount > 0 {
			d.Reviews = strconv.Itoa(*s.ReviewsCount)
		}
	}
	if s.Phone != nil && *s.Phone != "" {
		d.Phone = *s.Phone
		d.Call = TelURL(*s.Phone)
	}
	if s.Website != nil {
		d.Website = *s.Website
	}
	var buf bytes.Buffer
	if err := popupTmpl.Execute(&buf, d); err != nil {
		return template.HTMLEscapeString(s.Name)
	}
	return buf.String()
}

// TelURL is the call link for phone, trusted for use in href attributes.
func TelURL(phone string) template.URL { return template.URL("tel:" + dialable(phone)) }

// dialable keeps the characters a tel: link may carry.
func dialable(phone string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r == '+', r == '*', r == '#':
			return r
		case r == '-' || r == '(' || r == ')' || r == '.':
			return r
		default:
			return -1
		}
	}, phone)
}
