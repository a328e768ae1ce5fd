package storage

// Schema is the resolved table/column descriptor for a deployment. Schema
// discovery itself is an injected capability configured per deployment; this
// package only consumes the resolved names. AssignedProColumns is the fixed
// candidate list for the "which column holds the assigned technician" drift:
// storage tries each in order and moves on when the column does not exist.
type Schema struct {
	JobsTable          string   `yaml:"jobs_table"`
	OrdersTable        string   `yaml:"orders_table"`
	AssignmentsTable   string   `yaml:"assignments_table"`
	ProfilesTable      string   `yaml:"profiles_table"`
	APIKeysTable       string   `yaml:"api_keys_table"`
	AssignedProColumns []string `yaml:"assigned_pro_columns"`
}

// DefaultSchema returns the descriptor for the canonical deployment.
func DefaultSchema() Schema {
	return Schema{
		JobsTable:          "jobs",
		OrdersTable:        "orders",
		AssignmentsTable:   "assignments",
		ProfilesTable:      "pro_profiles",
		APIKeysTable:       "api_keys",
		AssignedProColumns: []string{"assigned_pro_id", "pro_id", "technician_id"},
	}
}

// withDefaults fills any unset fields from the canonical descriptor.
func (s Schema) withDefaults() Schema {
	def := DefaultSchema()
	if s.JobsTable == "" {
		s.JobsTable = def.JobsTable
	}
	if s.OrdersTable == "" {
		s.OrdersTable = def.OrdersTable
	}
	if s.AssignmentsTable == "" {
		s.AssignmentsTable = def.AssignmentsTable
	}
	if s.ProfilesTable == "" {
		s.ProfilesTable = def.ProfilesTable
	}
	if s.APIKeysTable == "" {
		s.APIKeysTable = def.APIKeysTable
	}
	if len(s.AssignedProColumns) == 0 {
		s.AssignedProColumns = def.AssignedProColumns
	}
	return s
}
