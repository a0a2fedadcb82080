// Package ads models ad-provider embed contracts as declarative render
// instructions. The actual DOM and script work happens in the client; this
// package only decides what to render and guards against double injection.
package ads

import "fmt"

type Kind string

const (
	// KindQueue providers expose a script tag plus a global queue array the
	// page pushes zone descriptors onto.
	KindQueue Kind = "queue"
	// KindIframe providers expose an iframe src template parameterized by a
	// provider-assigned numeric id.
	KindIframe Kind = "iframe"
)

type Provider struct {
	Name        string
	Kind        Kind
	Zone        string
	ScriptURL   string
	QueueGlobal string
	SrcTemplate string // fmt template taking the zone id
	Width       int
	Height      int
}

// RenderInstructions is everything a rendering adapter needs to mount one ad
// slot, with no DOM coupling.
type RenderInstructions struct {
	SlotID      string `json:"slot_id"`
	Provider    string `json:"provider"`
	ElementID   string `json:"element_id"`
	ScriptURL   string `json:"script_url,omitempty"`
	QueueGlobal string `json:"queue_global,omitempty"`
	QueueZone   string `json:"queue_zone,omitempty"`
	IframeSrc   string `json:"iframe_src,omitempty"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
}

// Render builds the instructions for mounting this provider into a slot.
func (p Provider) Render(slotID string) RenderInstructions {
	ri := RenderInstructions{
		SlotID:    slotID,
		Provider:  p.Name,
		ElementID: fmt.Sprintf("ad-%s", slotID),
		Width:     p.Width,
		Height:    p.Height,
	}
	switch p.Kind {
	case KindQueue:
		ri.ScriptURL = p.ScriptURL
		ri.QueueGlobal = p.QueueGlobal
		ri.QueueZone = p.Zone
	case KindIframe:
		ri.IframeSrc = fmt.Sprintf(p.SrcTemplate, p.Zone)
	}
	return ri
}

func juicy(zone string) Provider {
	return Provider{
		Name:        "juicyads",
		Kind:        KindQueue,
		Zone:        zone,
		ScriptURL:   "https://poweredby.jads.co/js/jads.js",
		QueueGlobal: "adsbyjuicy",
		Width:       308,
		Height:      286,
	}
}

// QueueProviders builds a rotation of JuicyAds zones from configuration.
func QueueProviders(zones []string) []Provider {
	providers := make([]Provider, 0, len(zones))
	for _, zone := range zones {
		providers = append(providers, juicy(zone))
	}
	return providers
}

// DefaultProviders is the stock rotation: three JuicyAds zones plus one
// iframe banner provider.
func DefaultProviders() []Provider {
	return []Provider{
		juicy("1048372"),
		juicy("1048373"),
		juicy("1048374"),
		{
			Name:        "duga",
			Kind:        KindIframe,
			Zone:        "48475-01",
			SrcTemplate: "https://ad.duga.jp/banner/%s/540/300",
			Width:       540,
			Height:      300,
		},
	}
}
