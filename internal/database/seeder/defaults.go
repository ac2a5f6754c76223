package seeder

// Defaults seeds workers before the jobs that will be matched against them.
func Defaults(d Demo) []Seeder {
	return []Seeder{
		WorkersSeeder{Workers: d.Workers},
		JobsSeeder{Demo: d},
	}
}
