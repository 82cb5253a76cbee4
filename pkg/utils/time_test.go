package utils

import (
	"testing"
	"time"
)

func TestGetDayStartFrom(t *testing.T) {
	tests := []struct {
		name  string
		input time.Time
		want  time.Time
	}{
		{
			name:  "middle of day",
			input: time.Date(2024, 1, 15, 14, 30, 45, 123, time.UTC),
			want:  time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "already at day start",
			input: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
			want:  time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "non-UTC input converted",
			input: time.Date(2024, 1, 15, 1, 0, 0, 0, time.FixedZone("UTC+3", 3*3600)),
			want:  time.Date(2024, 1, 14, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GetDayStartFrom(tt.input)
			if !got.Equal(tt.want) {
				t.Errorf("GetDayStartFrom(%v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestGetWeekStartFrom(t *testing.T) {
	tests := []struct {
		name  string
		input time.Time
		want  time.Time
	}{
		{
			name:  "wednesday",
			input: time.Date(2024, 1, 17, 14, 30, 0, 0, time.UTC), // среда
			want:  time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),   // понедельник
		},
		{
			name:  "monday stays",
			input: time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
			want:  time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "sunday belongs to previous monday",
			input: time.Date(2024, 1, 21, 23, 59, 59, 0, time.UTC),
			want:  time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "week spanning month boundary",
			input: time.Date(2024, 2, 2, 12, 0, 0, 0, time.UTC), // пятница
			want:  time.Date(2024, 1, 29, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GetWeekStartFrom(tt.input)
			if !got.Equal(tt.want) {
				t.Errorf("GetWeekStartFrom(%v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestGetMonthStartFrom(t *testing.T) {
	tests := []struct {
		name  string
		input time.Time
		want  time.Time
	}{
		{
			name:  "middle of month",
			input: time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC),
			want:  time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "first day of month",
			input: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			want:  time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "last day of month",
			input: time.Date(2024, 2, 29, 23, 59, 59, 0, time.UTC),
			want:  time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GetMonthStartFrom(tt.input)
			if !got.Equal(tt.want) {
				t.Errorf("GetMonthStartFrom(%v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestGetDayStart_IsToday(t *testing.T) {
	start := GetDayStart()
	now := time.Now().UTC()

	if start.After(now) {
		t.Errorf("day start %v is after now %v", start, now)
	}
	if now.Sub(start) >= 24*time.Hour {
		t.Errorf("day start %v is more than 24h before now %v", start, now)
	}
}
