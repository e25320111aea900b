package analytics

import (
	"testing"
	"time"
)

func day(year int, month time.Month, d, hour int) time.Time {
	return time.Date(year, month, d, hour, 0, 0, 0, time.UTC)
}

func sampleRows() []Row {
	return []Row{
		{UserName: "Ada", UserEmail: "ada@example.com", ResourceType: "room", ResourceName: "Study Room A",
			StartTime: day(2026, 8, 1, 9), EndTime: day(2026, 8, 1, 11), Status: "approved", Attendees: 4},
		{UserName: "Ada", UserEmail: "ada@example.com", ResourceType: "room", ResourceName: "Study Room A",
			StartTime: day(2026, 8, 1, 14), EndTime: day(2026, 8, 1, 15), Status: "pending", Attendees: 2},
		{UserName: "Grace", UserEmail: "grace@example.com", ResourceType: "tour", ResourceName: "Archives Tour",
			StartTime: day(2026, 8, 3, 9), EndTime: day(2026, 8, 3, 10), Status: "approved", Attendees: 3},
		{UserName: "Grace", UserEmail: "grace@example.com", ResourceType: "room", ResourceName: "Media Lab",
			StartTime: day(2026, 8, 3, 9), EndTime: day(2026, 8, 3, 12), Status: "rejected", Attendees: 6},
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(sampleRows())

	if s.TotalBookings != 4 {
		t.Errorf("TotalBookings = %d, want 4", s.TotalBookings)
	}
	if s.RoomBookings != 3 || s.TourBookings != 1 {
		t.Errorf("RoomBookings/TourBookings = %d/%d, want 3/1", s.RoomBookings, s.TourBookings)
	}
	if s.StatusCounts["approved"] != 2 || s.StatusCounts["pending"] != 1 || s.StatusCounts["rejected"] != 1 {
		t.Errorf("unexpected status counts: %+v", s.StatusCounts)
	}
	if s.TotalAttendees != 15 {
		t.Errorf("TotalAttendees = %d, want 15", s.TotalAttendees)
	}
	if s.UniqueUsers != 2 {
		t.Errorf("UniqueUsers = %d, want 2", s.UniqueUsers)
	}
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)
	if s.TotalBookings != 0 || s.UniqueUsers != 0 {
		t.Errorf("empty summary not zero: %+v", s)
	}
}

func TestCountByDay_FillsGaps(t *testing.T) {
	series := CountByDay(sampleRows(), day(2026, 8, 1, 0), day(2026, 8, 4, 0))

	if len(series) != 3 {
		t.Fatalf("len(series) = %d, want 3", len(series))
	}
	want := []DayCount{
		{Date: "2026-08-01", Count: 2},
		{Date: "2026-08-02", Count: 0},
		{Date: "2026-08-03", Count: 2},
	}
	for i, entry := range want {
		if series[i] != entry {
			t.Errorf("series[%d] = %+v, want %+v", i, series[i], entry)
		}
	}
}

func TestCountByMonth(t *testing.T) {
	rows := []Row{
		{StartTime: day(2026, 6, 10, 9)},
		{StartTime: day(2026, 8, 1, 9)},
		{StartTime: day(2026, 8, 20, 9)},
	}
	series := CountByMonth(rows, day(2026, 6, 1, 0), day(2026, 9, 1, 0))

	if len(series) != 3 {
		t.Fatalf("len(series) = %d, want 3", len(series))
	}
	if series[0].Month != "2026-06" || series[0].Count != 1 {
		t.Errorf("june = %+v", series[0])
	}
	if series[1].Month != "2026-07" || series[1].Count != 0 {
		t.Errorf("july = %+v", series[1])
	}
	if series[2].Month != "2026-08" || series[2].Count != 2 {
		t.Errorf("august = %+v", series[2])
	}
}

func TestPeakHours(t *testing.T) {
	series := PeakHours(sampleRows())

	if len(series) != 24 {
		t.Fatalf("len(series) = %d, want 24", len(series))
	}
	if series[9].Count != 3 {
		t.Errorf("hour 9 count = %d, want 3", series[9].Count)
	}
	if series[14].Count != 1 {
		t.Errorf("hour 14 count = %d, want 1", series[14].Count)
	}
	if series[0].Count != 0 {
		t.Errorf("hour 0 count = %d, want 0", series[0].Count)
	}
}

func TestTopUsers(t *testing.T) {
	users := TopUsers(sampleRows(), 1)
	if len(users) != 1 {
		t.Fatalf("len(users) = %d, want 1", len(users))
	}
	// Both have 2 bookings; Ada wins the name tiebreak.
	if users[0].Name != "Ada" || users[0].Bookings != 2 {
		t.Errorf("top user = %+v", users[0])
	}
}

func TestResourceUsageRanking_IgnoresUnusedStatuses(t *testing.T) {
	ranking := ResourceUsageRanking(sampleRows())

	if len(ranking) != 2 {
		t.Fatalf("len(ranking) = %d, want 2", len(ranking))
	}
	if ranking[0].ResourceName != "Study Room A" || ranking[0].BookedHours != 2 {
		t.Errorf("ranking[0] = %+v", ranking[0])
	}
	for _, usage := range ranking {
		if usage.ResourceName == "Media Lab" {
			t.Errorf("rejected booking counted as usage: %+v", usage)
		}
	}
}

func TestUtilizationAndFillRate(t *testing.T) {
	if got := Utilization(7, 14); got != 0.5 {
		t.Errorf("Utilization(7, 14) = %v, want 0.5", got)
	}
	if got := Utilization(20, 14); got != 1 {
		t.Errorf("Utilization should clamp to 1, got %v", got)
	}
	if got := Utilization(5, 0); got != 0 {
		t.Errorf("Utilization with zero open hours = %v, want 0", got)
	}
	if got := FillRate(15, 20); got != 0.75 {
		t.Errorf("FillRate(15, 20) = %v, want 0.75", got)
	}
	if got := FillRate(25, 20); got != 1 {
		t.Errorf("FillRate should clamp to 1, got %v", got)
	}
	if got := FillRate(5, 0); got != 0 {
		t.Errorf("FillRate with zero capacity = %v, want 0", got)
	}
}

func TestOpenHoursPerDay(t *testing.T) {
	got, err := OpenHoursPerDay("08:00", "22:30")
	if err != nil {
		t.Fatalf("OpenHoursPerDay: %v", err)
	}
	if got != 14.5 {
		t.Errorf("OpenHoursPerDay = %v, want 14.5", got)
	}

	if _, err := OpenHoursPerDay("22:00", "08:00"); err == nil {
		t.Error("expected error for closing before opening")
	}
	if _, err := OpenHoursPerDay("junk", "08:00"); err == nil {
		t.Error("expected error for invalid clock value")
	}
}
