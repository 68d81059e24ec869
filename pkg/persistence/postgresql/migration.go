package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE step_results (
				run_id VARCHAR(255) NOT NULL,
				step_name VARCHAR(255) NOT NULL,
				result TEXT NOT NULL,
				step_result VARCHAR(16),
				complete BOOLEAN NOT NULL DEFAULT FALSE,
				recorded_at TIMESTAMP WITH TIME ZONE NOT NULL,
				PRIMARY KEY (run_id, step_name)
			);

			CREATE INDEX idx_step_results_recorded_at ON step_results(run_id, recorded_at);
		`,
		2: `
			-- Denormalized counters for dashboards querying the table directly
			ALTER TABLE step_results
				ADD COLUMN error_count INTEGER NOT NULL DEFAULT 0,
				ADD COLUMN warning_count INTEGER NOT NULL DEFAULT 0;

			CREATE INDEX idx_step_results_step_result ON step_results(step_result);
		`,
	}
}
