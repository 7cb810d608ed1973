package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// RawRecord is one resource object exactly as the provider returned it.
// The verbatim payload is preserved through the merge for forward
// compatibility.
type RawRecord = json.RawMessage

// FetchFilter narrows a fetch to a window of resources.
type FetchFilter struct {
	// After limits the fetch to resources newer than this instant.
	// Only Strava honours it (epoch "after" parameter).
	After *time.Time

	// ProjectIDs limits the TickTick fetch to specific projects.
	// Empty means all projects.
	ProjectIDs []string
}

// timestampLayouts are the formats providers use for timestamp fields.
// TickTick emits zone offsets without a colon ("+0000").
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000-0700",
	"2006-01-02T15:04:05-0700",
}

// ParseTimestamp parses a provider timestamp, returning nil for empty or
// unparseable input. A bad timestamp must not fail a whole merge batch.
func ParseTimestamp(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			u := t.UTC()
			return &u
		}
	}
	return nil
}

// FlexString decodes a JSON string or number into a string.
// TickTick reports some fields (status) as numbers.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}

// FlexBool decodes a JSON bool or 0/1 number into a bool.
type FlexBool bool

func (f *FlexBool) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if data[0] == 't' || data[0] == 'f' {
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*f = FlexBool(b)
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = n != 0
	return nil
}

// Activity is one Strava activity row. The provider's numeric id is the
// only identity; every other field is overwritten on re-sync.
type Activity struct {
	ID                 int64
	Type               string
	Name               string
	Distance           *float64
	MovingTime         *int64
	ElapsedTime        *int64
	TotalElevationGain *float64
	StartDate          *time.Time
	StartLatLng        json.RawMessage
	Kilojoules         *float64
	AverageHeartrate   *float64
	MaxHeartrate       *float64
	ElevHigh           *float64
	ElevLow            *float64
	AverageSpeed       *float64
	MaxSpeed           *float64
	Raw                RawRecord
}

// DecodeActivity derives a typed activity row from a raw Strava record.
// A missing id is the only fatal condition.
func DecodeActivity(raw RawRecord) (*Activity, error) {
	var src struct {
		ID                 int64           `json:"id"`
		Type               string          `json:"type"`
		Name               string          `json:"name"`
		Distance           *float64        `json:"distance"`
		MovingTime         *int64          `json:"moving_time"`
		ElapsedTime        *int64          `json:"elapsed_time"`
		TotalElevationGain *float64        `json:"total_elevation_gain"`
		StartDate          string          `json:"start_date"`
		StartLatLng        json.RawMessage `json:"start_latlng"`
		Kilojoules         *float64        `json:"kilojoules"`
		AverageHeartrate   *float64        `json:"average_heartrate"`
		MaxHeartrate       *float64        `json:"max_heartrate"`
		ElevHigh           *float64        `json:"elev_high"`
		ElevLow            *float64        `json:"elev_low"`
		AverageSpeed       *float64        `json:"average_speed"`
		MaxSpeed           *float64        `json:"max_speed"`
	}
	if err := json.Unmarshal(raw, &src); err != nil {
		return nil, fmt.Errorf("decode activity: %w", err)
	}
	if src.ID == 0 {
		return nil, fmt.Errorf("%w: activity without id", ErrInvalidInput)
	}

	return &Activity{
		ID:                 src.ID,
		Type:               src.Type,
		Name:               src.Name,
		Distance:           src.Distance,
		MovingTime:         src.MovingTime,
		ElapsedTime:        src.ElapsedTime,
		TotalElevationGain: src.TotalElevationGain,
		StartDate:          ParseTimestamp(src.StartDate),
		StartLatLng:        src.StartLatLng,
		Kilojoules:         src.Kilojoules,
		AverageHeartrate:   src.AverageHeartrate,
		MaxHeartrate:       src.MaxHeartrate,
		ElevHigh:           src.ElevHigh,
		ElevLow:            src.ElevLow,
		AverageSpeed:       src.AverageSpeed,
		MaxSpeed:           src.MaxSpeed,
		Raw:                raw,
	}, nil
}

// Task is one TickTick task row, keyed by the provider's string id.
type Task struct {
	ID            string
	ProjectID     string
	Title         string
	Content       *string
	Desc          *string
	IsAllDay      bool
	StartDate     *time.Time
	DueDate       *time.Time
	TimeZone      *string
	RepeatFlag    *string
	Reminders     json.RawMessage
	Priority      *int64
	Status        *string
	CompletedTime *time.Time
	SortOrder     *int64
	Items         json.RawMessage
	Tags          []string
	ModifiedTime  *time.Time
	CreatedTime   *time.Time
	Deleted       bool
	Etag          *string
	Raw           RawRecord
}

// DecodeTask derives a typed task row from a raw TickTick record.
// Field aliases (allDay/isAllDay, repeat/repeatFlag) follow the wire shapes
// TickTick has used across API versions.
func DecodeTask(raw RawRecord) (*Task, error) {
	var src struct {
		ID            string          `json:"id"`
		ProjectID     string          `json:"projectId"`
		Title         string          `json:"title"`
		Content       *string         `json:"content"`
		Desc          *string         `json:"desc"`
		IsAllDay      FlexBool        `json:"isAllDay"`
		AllDay        FlexBool        `json:"allDay"`
		StartDate     string          `json:"startDate"`
		DueDate       string          `json:"dueDate"`
		TimeZone      *string         `json:"timeZone"`
		RepeatFlag    *string         `json:"repeatFlag"`
		Repeat        *string         `json:"repeat"`
		Reminders     json.RawMessage `json:"reminders"`
		Priority      *int64          `json:"priority"`
		Status        *FlexString     `json:"status"`
		CompletedTime string          `json:"completedTime"`
		SortOrder     *int64          `json:"sortOrder"`
		Items         json.RawMessage `json:"items"`
		Tags          []string        `json:"tags"`
		ModifiedTime  string          `json:"modifiedTime"`
		CreatedTime   string          `json:"createdTime"`
		Deleted       FlexBool        `json:"deleted"`
		Etag          *string         `json:"etag"`
	}
	if err := json.Unmarshal(raw, &src); err != nil {
		return nil, fmt.Errorf("decode task: %w", err)
	}
	if src.ID == "" {
		return nil, fmt.Errorf("%w: task without id", ErrInvalidInput)
	}

	repeatFlag := src.RepeatFlag
	if repeatFlag == nil {
		repeatFlag = src.Repeat
	}

	var status *string
	if src.Status != nil {
		s := string(*src.Status)
		status = &s
	}

	return &Task{
		ID:            src.ID,
		ProjectID:     src.ProjectID,
		Title:         src.Title,
		Content:       src.Content,
		Desc:          src.Desc,
		IsAllDay:      bool(src.IsAllDay) || bool(src.AllDay),
		StartDate:     ParseTimestamp(src.StartDate),
		DueDate:       ParseTimestamp(src.DueDate),
		TimeZone:      src.TimeZone,
		RepeatFlag:    repeatFlag,
		Reminders:     src.Reminders,
		Priority:      src.Priority,
		Status:        status,
		CompletedTime: ParseTimestamp(src.CompletedTime),
		SortOrder:     src.SortOrder,
		Items:         src.Items,
		Tags:          src.Tags,
		ModifiedTime:  ParseTimestamp(src.ModifiedTime),
		CreatedTime:   ParseTimestamp(src.CreatedTime),
		Deleted:       bool(src.Deleted),
		Etag:          src.Etag,
		Raw:           raw,
	}, nil
}

// DailyMetric is one day of manually tracked metrics. Absent optional
// fields leave the stored value untouched on upsert.
type DailyMetric struct {
	Day        time.Time `json:"day"`
	CalorieIn  *int64    `json:"calorie_in,omitempty"`
	CalorieOut *int64    `json:"calorie_out,omitempty"`
	ProteinG   *int64    `json:"protein_g,omitempty"`
	WeightKg   *float64  `json:"weight_kg,omitempty"`
	Notes      *string   `json:"notes,omitempty"`
	CreatedAt  time.Time `json:"created_at,omitempty"`
	UpdatedAt  time.Time `json:"updated_at,omitempty"`
}

// ParseDay parses a YYYY-MM-DD day key.
func ParseDay(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: bad day %s", ErrInvalidInput, strconv.Quote(s))
	}
	return t, nil
}
