// Package ics renders resolved events as an iCalendar feed so that a
// calendar app can subscribe to event expiries.
package ics

import (
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/albapepper/eventclock/internal/event"
)

const productID = "-//eventclock//events//EN"

// UID returns the stable VEVENT UID of an event.
func UID(e event.Resolved) string {
	return fmt.Sprintf("%s-%s@eventclock", e.Source, e.ID)
}

// Export serializes events as a VCALENDAR. Expired events are left out.
// DTSTAMP is stamped with now so output is reproducible in tests.
func Export(events []event.Resolved, regionName string, now time.Time) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)

	for _, e := range events {
		if e.Status == event.StatusExpired || !e.Expiry.After(now) {
			continue
		}
		ve := cal.AddEvent(UID(e))
		ve.SetDtStampTime(now.UTC())
		ve.SetStartAt(e.Start.UTC())
		ve.SetEndAt(e.Expiry.UTC())
		ve.SetSummary(fmt.Sprintf("%s: %s", e.GameName, e.Name))
		ve.SetDescription(describe(e, regionName))
		ve.AddProperty(ical.ComponentPropertyCategories, strings.ToUpper(string(e.EventType)))
	}
	return cal.Serialize()
}

func describe(e event.Resolved, regionName string) string {
	parts := []string{
		"Game: " + e.GameName,
		"Type: " + string(e.EventType),
	}
	if regionName != "" {
		parts = append(parts, "Region: "+regionName)
	}
	if e.DailyLogin {
		parts = append(parts, "Daily login")
	}
	return strings.Join(parts, "\n")
}
