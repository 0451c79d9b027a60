package admin

// SystemStats is the system-wide snapshot behind the statistics endpoint.
type SystemStats struct {
	TotalPatients      int `json:"total_patients"`
	TotalDoctors       int `json:"total_doctors"`
	TotalAdmins        int `json:"total_admins"`
	ActiveUsers        int `json:"active_users"`
	InactiveUsers      int `json:"inactive_users"`
	UnverifiedUsers    int `json:"unverified_users"`
	RegisteredToday    int `json:"registered_today"`
	TotalAppointments  int `json:"total_appointments"`
	AppointmentsToday  int `json:"appointments_today"`
	TotalRecords       int `json:"total_records"`
	TotalPrescriptions int `json:"total_prescriptions"`
	SuspiciousLogs     int `json:"suspicious_logs"`
}
