package models

// Department is a row of the departments table.
type Department struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Employee is a users_profile row whose role is RoleEmployee.
type Employee struct {
	UserID   string `json:"user_id"`
	FullName string `json:"full_name"`
}

// RoleEmployee is the users_profile role offered as an asset assignee.
const RoleEmployee = "employee"

// Lookups bundles the metadata rendered next to the asset table.
type Lookups struct {
	Departments []Department `json:"departments"`
	Employees   []Employee   `json:"employees"`
}
