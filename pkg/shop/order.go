package shop

import (
	"net/url"
	"strings"

	"github.com/fabianshop/storefront/pkg/core"
)

// OrderMessage is the enquiry text sent for a list of favourite products.
func OrderMessage(items []core.Product) string {
	var sb strings.Builder
	sb.WriteString("Ciao! Sono interessato/a ai seguenti prodotti:\n\n")
	for i, p := range items {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("- ")
		sb.WriteString(p.Name)
		sb.WriteString(" (€ ")
		sb.WriteString(p.Price)
		sb.WriteString(")")
	}
	sb.WriteString("\n\nVorrei avere maggiori informazioni!")
	return sb.String()
}

// OrderLink builds a WhatsApp click-to-chat link carrying OrderMessage.
// It returns "" when there is nothing to order.
func OrderLink(phone string, items []core.Product) string {
	if len(items) == 0 || phone == "" {
		return ""
	}
	q := url.Values{"text": {OrderMessage(items)}}
	return "https://wa.me/" + url.PathEscape(phone) + "?" + q.Encode()
}
