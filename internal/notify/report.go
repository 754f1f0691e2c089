package notify

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/farmacase/farmacase/internal/model"
)

const (
	subjectPrefix   = "[FarmaciCase] "
	fallbackUser    = "Utente"
	fallbackAdmin   = "Amministratore"
	lowHeading      = "FARMACI SOTTO SOGLIA MINIMA:"
	expiringHeading = "FARMACI IN SCADENZA:"
)

var italianWeekdays = [...]string{
	time.Sunday:    "domenica",
	time.Monday:    "lunedì",
	time.Tuesday:   "martedì",
	time.Wednesday: "mercoledì",
	time.Thursday:  "giovedì",
	time.Friday:    "venerdì",
	time.Saturday:  "sabato",
}

type report struct {
	Subject string
	Body    string
}

func greeting(b *strings.Builder, name, fallback string) {
	if name == "" {
		name = fallback
	}
	fmt.Fprintf(b, "Gentile %s,\n\n", name)
}

func footer(b *strings.Builder, appURL string) {
	fmt.Fprintf(b, "Per visualizzare i dettagli e prendere provvedimenti, acceda al sistema:\n%s\n\n", appURL)
	b.WriteString("Grazie per la collaborazione,\nSistema FarmaciCase")
}

// daysLeft renders the days remaining for an expiring line. Unparseable
// dates report zero rather than dropping the line.
func daysLeft(m model.Medication, now time.Time, loc *time.Location) int {
	expiry, err := m.Expiry(loc)
	if err != nil {
		return 0
	}
	return DaysUntil(expiry, now)
}

// houseReport renders the weekly email for one recipient of one house. The
// low-stock section precedes the expiring section; empty sections are
// omitted.
func houseReport(recipient, house string, low, expiring []model.Medication, now time.Time, cfg Config) report {
	var b strings.Builder
	greeting(&b, recipient, fallbackUser)
	fmt.Fprintf(&b, "Di seguito il rapporto settimanale dei farmaci che richiedono attenzione presso %s:\n\n", house)

	if len(low) > 0 {
		b.WriteString(lowHeading + "\n")
		for _, m := range low {
			fmt.Fprintf(&b, "- %s (%s): %d rimanenti (soglia minima: %d)\n",
				m.CommercialName, m.ActiveIngredient, m.TotalQuantity, m.MinQuantityAlert)
		}
		b.WriteString("\n")
	}

	if len(expiring) > 0 {
		b.WriteString(expiringHeading + "\n")
		for _, m := range expiring {
			fmt.Fprintf(&b, "- %s (%s): Scadenza %s (entro %d giorni)\n",
				m.CommercialName, m.ActiveIngredient, m.ExpirationDate, daysLeft(m, now, cfg.Location))
		}
		b.WriteString("\n")
	}

	footer(&b, cfg.AppURL)
	return report{
		Subject: subjectPrefix + "Notifica Settimanale Farmaci - " + house,
		Body:    b.String(),
	}
}

// HouseTally counts flagged medications for one house in the admin digest.
type HouseTally struct {
	House    string
	Expiring int
	Low      int
}

func tally(low, expiring []model.MedicationWithHouse) []HouseTally {
	byHouse := map[string]*HouseTally{}
	get := func(name string) *HouseTally {
		t, ok := byHouse[name]
		if !ok {
			t = &HouseTally{House: name}
			byHouse[name] = t
		}
		return t
	}
	for _, m := range expiring {
		get(m.HouseName).Expiring++
	}
	for _, m := range low {
		get(m.HouseName).Low++
	}

	out := make([]HouseTally, 0, len(byHouse))
	for _, t := range byHouse {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].House < out[j].House })
	return out
}

// adminDigest renders the cross-house summary sent to every admin.
func adminDigest(recipient string, low, expiring []model.MedicationWithHouse, now time.Time, cfg Config) report {
	var b strings.Builder
	greeting(&b, recipient, fallbackAdmin)
	b.WriteString("Di seguito il rapporto settimanale completo dei farmaci che richiedono attenzione in tutte le Case di Comunità:\n\n")

	if len(low) > 0 {
		b.WriteString(lowHeading + "\n")
		for _, m := range low {
			fmt.Fprintf(&b, "- %s (%s): %d rimanenti (soglia minima: %d) - %s\n",
				m.CommercialName, m.ActiveIngredient, m.TotalQuantity, m.MinQuantityAlert, m.HouseName)
		}
		b.WriteString("\n")
	}

	if len(expiring) > 0 {
		b.WriteString(expiringHeading + "\n")
		for _, m := range expiring {
			fmt.Fprintf(&b, "- %s (%s): Scadenza %s (entro %d giorni) - %s\n",
				m.CommercialName, m.ActiveIngredient, m.ExpirationDate, daysLeft(m.Medication, now, cfg.Location), m.HouseName)
		}
		b.WriteString("\n")
	}

	b.WriteString("RIEPILOGO PER CASA DI COMUNITÀ:\n")
	for _, t := range tally(low, expiring) {
		fmt.Fprintf(&b, "- %s: %d in scadenza, %d sotto soglia\n", t.House, t.Expiring, t.Low)
	}
	b.WriteString("\n")

	footer(&b, cfg.AppURL)
	return report{
		Subject: subjectPrefix + "Rapporto Amministrativo Settimanale - Farmaci",
		Body:    b.String(),
	}
}

func testReport(recipient string, s Schedule) report {
	if recipient == "" {
		recipient = fallbackUser
	}
	body := fmt.Sprintf("Gentile %s,\n\n"+
		"Questa è una notifica di test dal sistema FarmaciCase.\n\n"+
		"Se stai ricevendo questa email, il sistema di notifiche è configurato correttamente.\n\n"+
		"Le notifiche automatiche per i farmaci in scadenza e sotto soglia minima verranno inviate ogni %s alle %02d:%02d.\n\n"+
		"Grazie,\nSistema FarmaciCase",
		recipient, italianWeekdays[s.Weekday], s.Hour, s.Minute)
	return report{
		Subject: subjectPrefix + "Notifica di Test",
		Body:    body,
	}
}
