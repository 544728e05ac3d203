package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE storage_records (
				id VARCHAR(255) PRIMARY KEY,
				data JSONB NOT NULL,
				stored_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_storage_records_stored_at ON storage_records(stored_at);
		`,
	}
}
