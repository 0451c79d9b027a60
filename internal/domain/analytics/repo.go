package analytics

import "context"

// Repository runs the aggregation queries behind the analytics endpoints.
type Repository interface {
	Dashboard(ctx context.Context) (*DashboardStats, error)
	PatientBreakdown(ctx context.Context) (*PatientStats, error)
	AppointmentBreakdown(ctx context.Context) (*AppointmentStats, error)
	DoctorWorkload(ctx context.Context) ([]DoctorLoad, error)
	Revenue(ctx context.Context) (*RevenueStats, error)
}
