// Package caldav talks to a CalDAV server: calendar discovery, event
// queries and event creation. All event times are normalized to the
// configured scheduling timezone at this boundary.
package caldav

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav"
	cdav "github.com/emersion/go-webdav/caldav"
	"github.com/google/uuid"

	"github.com/me/autoplan/internal/interval"
)

// Event describes a calendar event to create.
type Event struct {
	Summary         string
	Start           time.Time
	End             time.Time
	Description     string
	Link            string
	ReminderMinutes int
	Calendar        string // empty means the default calendar
}

// Client wraps a CalDAV connection plus the discovered calendar set.
// Connect must be called before any query.
type Client struct {
	url             string
	username        string
	defaultCalendar string
	loc             *time.Location

	client    *cdav.Client
	calendars map[string]cdav.Calendar // lowercased name -> calendar
	names     []string                 // discovery order, original casing
}

// NewClient creates a CalDAV client with basic authentication.
func NewClient(url, username, password, defaultCalendar string, loc *time.Location) (*Client, error) {
	if url == "" {
		return nil, fmt.Errorf("caldav url is required")
	}
	if loc == nil {
		loc = time.UTC
	}

	httpClient := webdav.HTTPClientWithBasicAuth(nil, username, password)
	client, err := cdav.NewClient(httpClient, url)
	if err != nil {
		return nil, fmt.Errorf("creating caldav client: %w", err)
	}

	return &Client{
		url:             url,
		username:        username,
		defaultCalendar: defaultCalendar,
		loc:             loc,
		client:          client,
	}, nil
}

// Connect discovers the calendars behind the configured URL. When principal
// discovery fails the URL itself is registered as the "default" calendar,
// which covers servers pointing straight at a calendar collection.
func (c *Client) Connect(ctx context.Context) error {
	c.calendars = make(map[string]cdav.Calendar)
	c.names = nil

	principal, err := c.client.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return c.fallbackCalendar(fmt.Errorf("finding principal: %w", err))
	}

	homeSet, err := c.client.FindCalendarHomeSet(ctx, principal)
	if err != nil {
		return c.fallbackCalendar(fmt.Errorf("finding calendar home set: %w", err))
	}

	calendars, err := c.client.FindCalendars(ctx, homeSet)
	if err != nil {
		return c.fallbackCalendar(fmt.Errorf("listing calendars: %w", err))
	}

	for _, cal := range calendars {
		name := calendarName(cal)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if _, ok := c.calendars[key]; ok {
			continue
		}
		c.calendars[key] = cal
		c.names = append(c.names, name)
	}

	if len(c.calendars) == 0 {
		return c.fallbackCalendar(fmt.Errorf("no calendars discovered"))
	}
	return nil
}

// fallbackCalendar registers the configured URL as the only calendar.
// Servers pointed straight at a collection often have no discoverable
// principal.
func (c *Client) fallbackCalendar(error) error {
	c.calendars["default"] = cdav.Calendar{Path: c.url, Name: "default"}
	c.names = []string{"default"}
	return nil
}

// calendarName prefers the display name and falls back to the last URL path
// segment.
func calendarName(cal cdav.Calendar) string {
	if strings.TrimSpace(cal.Name) != "" {
		return strings.TrimSpace(cal.Name)
	}
	path := strings.TrimRight(cal.Path, "/")
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}

// Calendars lists the discovered calendar names in sorted order.
func (c *Client) Calendars() []string {
	names := append([]string(nil), c.names...)
	sort.Strings(names)
	return names
}

// calendar resolves a calendar by case-insensitive name. Empty selects the
// configured default, or the first discovered calendar.
func (c *Client) calendar(name string) (cdav.Calendar, error) {
	if len(c.calendars) == 0 {
		return cdav.Calendar{}, fmt.Errorf("not connected: call Connect first")
	}

	if name == "" {
		name = c.defaultCalendar
	}
	if name == "" && len(c.names) > 0 {
		name = c.names[0]
	}

	cal, ok := c.calendars[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return cdav.Calendar{}, fmt.Errorf("calendar %q not found, available: %s",
			name, strings.Join(c.Calendars(), ", "))
	}
	return cal, nil
}

// HasCalendar reports whether a calendar with the given name was discovered.
func (c *Client) HasCalendar(name string) bool {
	_, err := c.calendar(name)
	return err == nil
}

// Events fetches the events overlapping [start, end) from one calendar,
// sorted by start time. All-day events carry no schedulable time and are
// skipped; events that fail to parse are skipped as well.
func (c *Client) Events(ctx context.Context, start, end time.Time, calendarName string) ([]interval.Busy, error) {
	cal, err := c.calendar(calendarName)
	if err != nil {
		return nil, err
	}

	query := &cdav.CalendarQuery{
		CompRequest: cdav.CalendarCompRequest{
			Name: ical.CompCalendar,
			Comps: []cdav.CalendarCompRequest{{
				Name:     ical.CompEvent,
				AllProps: true,
			}},
		},
		CompFilter: cdav.CompFilter{
			Name: ical.CompCalendar,
			Comps: []cdav.CompFilter{{
				Name:  ical.CompEvent,
				Start: start.UTC(),
				End:   end.UTC(),
			}},
		},
	}

	objects, err := c.client.QueryCalendar(ctx, cal.Path, query)
	if err != nil {
		return nil, fmt.Errorf("querying calendar %q: %w", calendarName, err)
	}

	var busy []interval.Busy
	for _, obj := range objects {
		if obj.Data == nil {
			continue
		}
		for _, ev := range obj.Data.Events() {
			b, ok := c.busyFromEvent(ev)
			if !ok {
				continue
			}
			busy = append(busy, b)
		}
	}

	sort.SliceStable(busy, func(i, j int) bool {
		return busy[i].Start.Before(busy[j].Start)
	})
	return busy, nil
}

func (c *Client) busyFromEvent(ev ical.Event) (interval.Busy, bool) {
	startProp := ev.Props.Get(ical.PropDateTimeStart)
	if startProp == nil || startProp.ValueType() == ical.ValueDate {
		return interval.Busy{}, false
	}

	start, err := ev.DateTimeStart(c.loc)
	if err != nil {
		return interval.Busy{}, false
	}

	end, err := ev.DateTimeEnd(c.loc)
	if err != nil || end.IsZero() || !end.After(start) {
		end = start.Add(time.Hour)
	}

	summary, _ := ev.Props.Text(ical.PropSummary)
	if summary == "" {
		summary = "Untitled"
	}
	uid, _ := ev.Props.Text(ical.PropUID)
	description, _ := ev.Props.Text(ical.PropDescription)

	return interval.Busy{
		UID:         uid,
		Title:       summary,
		Start:       start.In(c.loc),
		End:         end.In(c.loc),
		Description: description,
	}, true
}

// CreateEvent writes a new event to the calendar and returns it as a busy
// interval.
func (c *Client) CreateEvent(ctx context.Context, event Event) (interval.Busy, error) {
	cal, err := c.calendar(event.Calendar)
	if err != nil {
		return interval.Busy{}, err
	}

	uid := uuid.New().String()
	calData := buildEventCalendar(uid, event)

	path := strings.TrimRight(cal.Path, "/") + "/" + uid + ".ics"
	if _, err := c.client.PutCalendarObject(ctx, path, calData); err != nil {
		return interval.Busy{}, fmt.Errorf("creating event %q: %w", event.Summary, err)
	}

	return interval.Busy{
		UID:         uid,
		Title:       event.Summary,
		Start:       event.Start,
		End:         event.End,
		Description: event.Description,
	}, nil
}

// buildEventCalendar assembles the VCALENDAR payload for one event. Times
// are written in UTC.
func buildEventCalendar(uid string, event Event) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, "-//autoplan//EN")

	ev := ical.NewEvent()
	ev.Props.SetText(ical.PropUID, uid)
	ev.Props.SetDateTime(ical.PropDateTimeStamp, time.Now().UTC())
	ev.Props.SetDateTime(ical.PropDateTimeStart, event.Start.UTC())
	ev.Props.SetDateTime(ical.PropDateTimeEnd, event.End.UTC())
	ev.Props.SetText(ical.PropSummary, event.Summary)
	if event.Description != "" {
		ev.Props.SetText(ical.PropDescription, event.Description)
	}
	if event.Link != "" {
		ev.Props.SetText(ical.PropURL, event.Link)
	}

	if event.ReminderMinutes > 0 {
		alarm := ical.NewComponent(ical.CompAlarm)
		alarm.Props.SetText(ical.PropAction, "DISPLAY")
		alarm.Props.SetText(ical.PropDescription, "Reminder")
		alarm.Props.SetText(ical.PropTrigger, reminderTrigger(event.ReminderMinutes))
		ev.Children = append(ev.Children, alarm)
	}

	cal.Children = append(cal.Children, ev.Component)
	return cal
}

// reminderTrigger renders the alarm offset as a negative ISO 8601 duration,
// using hours for whole-hour reminders.
func reminderTrigger(minutes int) string {
	if minutes >= 60 && minutes%60 == 0 {
		return fmt.Sprintf("-PT%dH", minutes/60)
	}
	return fmt.Sprintf("-PT%dM", minutes)
}
