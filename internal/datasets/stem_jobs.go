package datasets

import "genderviz/internal/dataprocessing"

// StemJobs reshapes the Census STEM occupations workbook: ten title rows and the
// footnotes are dropped, every other column is a margin of error and is skipped
func StemJobs() MungeJob {
	return MungeJob{
		Name:   "stem_jobs",
		Source: "Table1_STEM _STEM-Related_Occupations (1).xlsx",
		Output: "STEM_jobs.csv",
		Load: dataprocessing.LoadOptions{
			SkipRows: 10,
			MaxRows:  130,
			Columns:  []int{0, 1, 3, 5, 7, 9, 11, 13, 15},
			Header: []string{
				"occupation",
				"total_employed", "men_employed", "women_employed", "percent_of_women",
				"total_median_earnings", "men_earnings", "women_earnings", "percent_of_men_earnings",
			},
		},
		Sections: dataprocessing.SectionRule{
			LabelColumn:    "occupation",
			CategoryColumn: "occupation_category",
		},
	}
}
