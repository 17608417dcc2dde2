package calsync

import (
	"fmt"
	"strings"
	"time"

	"planner/internal/domain/event"
)

// localFromRemote переводит событие Google в локальное представление.
// Дата окончания события на весь день у Google не включается в интервал,
// локально хранится включительная дата.
func localFromRemote(userID int, calendarID string, item RemoteEvent) (*event.Event, error) {
	if item.ID == "" || item.Start.IsZero() || item.End.IsZero() {
		return nil, ErrMalformedEvent
	}

	allDay := item.Start.Date != ""

	var start, end time.Time
	if allDay {
		var err error
		start, err = parseDay(item.Start)
		if err != nil {
			return nil, err
		}
		end, err = parseDay(item.End)
		if err != nil {
			return nil, err
		}
		end = end.AddDate(0, 0, -1)
		if end.Before(start) {
			end = start
		}
	} else {
		start, end = item.Start.DateTime.UTC(), item.End.DateTime.UTC()
	}

	title := strings.TrimSpace(item.Summary)
	if title == "" {
		title = event.UntitledTitle
	}

	remoteID, cal, etag := item.ID, calendarID, item.ETag
	ev := &event.Event{
		UserID:           userID,
		Title:            title,
		Description:      item.Description,
		Location:         item.Location,
		StartTime:        start,
		EndTime:          end,
		AllDay:           allDay,
		IsRecurring:      item.RecurringEventID != "",
		GoogleEventID:    &remoteID,
		GoogleCalendarID: &cal,
	}
	if etag != "" {
		ev.ETag = &etag
	}

	return ev, nil
}

// remoteFromLocal готовит тело запроса insert/patch
func remoteFromLocal(ev *event.Event) *RemoteEvent {
	out := &RemoteEvent{
		Summary:     ev.Title,
		Description: ev.Description,
		Location:    ev.Location,
	}

	if ev.AllDay {
		out.Start = RemoteTime{Date: ev.StartTime.UTC().Format(dateLayout)}
		out.End = RemoteTime{Date: ev.EndTime.UTC().AddDate(0, 0, 1).Format(dateLayout)}
		return out
	}

	out.Start = RemoteTime{DateTime: ev.StartTime.UTC(), TimeZone: "UTC"}
	out.End = RemoteTime{DateTime: ev.EndTime.UTC(), TimeZone: "UTC"}
	return out
}

// parseDay принимает дату без времени; если Google прислал dateTime, берется его день
func parseDay(t RemoteTime) (time.Time, error) {
	if t.Date == "" {
		return event.NormalizeDay(t.DateTime.UTC()), nil
	}
	d, err := time.Parse(dateLayout, t.Date)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: bad date %q", ErrMalformedEvent, t.Date)
	}
	return event.NormalizeDay(d), nil
}
