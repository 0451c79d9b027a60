package analytics

import "time"

// DashboardStats is the top-level summary.
type DashboardStats struct {
	Patients             int            `json:"patients"`
	Doctors              int            `json:"doctors"`
	AppointmentsToday    int            `json:"appointments_today"`
	AppointmentsByStatus map[string]int `json:"appointments_by_status"`
	TotalRevenue         float64        `json:"total_revenue"`
}

// MonthCount is one month bucket in a time series.
type MonthCount struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

// MonthAmount is one month bucket of a money series.
type MonthAmount struct {
	Month  string  `json:"month"`
	Amount float64 `json:"amount"`
}

// PatientStats breaks the patient population down.
type PatientStats struct {
	Total        int            `json:"total"`
	ByBloodGroup map[string]int `json:"by_blood_group"`
	NewPerMonth  []MonthCount   `json:"new_per_month"`
}

// AppointmentStats breaks appointments down.
type AppointmentStats struct {
	Total    int            `json:"total"`
	ByStatus map[string]int `json:"by_status"`
	PerMonth []MonthCount   `json:"per_month"`
}

// DoctorLoad is one doctor's appointment workload.
type DoctorLoad struct {
	DoctorID     string `json:"doctor_id"`
	Name         string `json:"name"`
	Appointments int    `json:"appointments"`
	Completed    int    `json:"completed"`
}

// RevenueStats aggregates completed-appointment fees.
type RevenueStats struct {
	Total    float64       `json:"total"`
	PerMonth []MonthAmount `json:"per_month"`
}

// CacheStats reports on the memoization layer.
type CacheStats struct {
	Entries   int        `json:"entries"`
	Expired   int        `json:"expired"`
	TotalHits int64      `json:"total_hits"`
	Oldest    *time.Time `json:"oldest,omitempty"`
}
