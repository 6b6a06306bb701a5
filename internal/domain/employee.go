package domain

import "time"

// Employee is the minimal directory entry needed to validate clock-ins.
type Employee struct {
	ID        string
	Name      string
	Active    bool
	CreatedAt time.Time
}

// DeviceHeartbeat is the last time a device was seen acting for an employee.
type DeviceHeartbeat struct {
	EmployeeID       string
	DeviceIdentifier string
	Location         string
	LastSeenAt       time.Time
}
