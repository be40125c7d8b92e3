package feature

// Cancer schema: county cancer mortality regressor, 30 continuous features.

const (
	sectionCancerKey       = "Key County Indicators"
	sectionCancerPop       = "Population & Cancer Metrics"
	sectionCancerAge       = "Age Demographics"
	sectionCancerFamily    = "Family Structure"
	sectionCancerEducation = "Education (Ages 18-24)"
	sectionCancerWork      = "Employment"
	sectionCancerInsurance = "Health Insurance"
	sectionCancerRace      = "Race/Ethnicity"
)

func pct(name, label, section string, def float64) Field {
	return number(name, label, section, 0, 100, 0.1, def)
}

// Cancer is the county mortality schema in training column order.
var Cancer = mustSchema("cancer",
	number("avganncount", "Average annual cancer cases", sectionCancerPop, 0, 100000, 100, 169),
	key(number("avgdeathsperyear", "Average annual number of cancer deaths", sectionCancerKey, 0, 100000, 1, 61)),
	key(number("incidencerate", "Cancer incidence rate (cases per 100,000 people)", sectionCancerKey, 0, 100000, 1, 453.5494221)),
	key(number("medincome", "Median Household Income ($)", sectionCancerKey, 0, 1000000, 1000, 45269)),
	number("popest2015", "Population estimate (2015)", sectionCancerPop, 0, 40000000, 1000, 25788),
	key(help(pct("povertypercent", "% of population below poverty line", sectionCancerKey, 15.8),
		"Percentage of population below federal poverty line")),
	number("studypercap", "Cancer studies per capita", sectionCancerPop, 0, 10000, 1, 0),
	number("medianage", "Median age (total population)", sectionCancerAge, 0, 100, 0.1, 41),
	number("medianagemale", "Median age (males)", sectionCancerAge, 0, 100, 0.1, 39.6),
	number("medianagefemale", "Median age (females)", sectionCancerAge, 0, 100, 0.1, 42.4),
	pct("percentmarried", "% of adults who are married", sectionCancerFamily, 52.5),
	pct("pctnohs18_24", "% with no high school diploma (18-24)", sectionCancerEducation, 17.2),
	pct("pcths18_24", "% with high school diploma only (18-24)", sectionCancerEducation, 34.8),
	pct("pctsomecol18_24", "% with some college (18-24)", sectionCancerEducation, 40.4),
	pct("pctbachdeg18_24", "% with bachelor's degree (18-24)", sectionCancerEducation, 5.4),
	key(pct("pcths25_over", "% of 25+ year olds with high school diploma (only)", sectionCancerKey, 35.4)),
	key(pct("pctbachdeg25_over", "% of 25+ year olds with bachelor's degree", sectionCancerKey, 12.4)),
	pct("pctemployed16_over", "% employed (16+ years)", sectionCancerWork, 54.5),
	key(pct("pctunemployed16_over", "% of 16+ year olds who are unemployed", sectionCancerKey, 7.6)),
	key(pct("pctprivatecoverage", "% with any private insurance (employer, purchased, etc.)", sectionCancerKey, 65.1)),
	pct("pctprivatecoveragealone", "% with only private insurance", sectionCancerInsurance, 48.7),
	pct("pctempprivcoverage", "% with employer-provided private insurance", sectionCancerInsurance, 41.1),
	pct("pctpubliccoverage", "% with any public insurance (Medicaid/Medicare)", sectionCancerInsurance, 36.4),
	key(pct("pctpubliccoveragealone", "% with only public insurance (no private)", sectionCancerKey, 18.8)),
	pct("pctwhite", "% White population", sectionCancerRace, 90.12443712),
	pct("pctblack", "% Black population", sectionCancerRace, 2.231905108),
	pct("pctasian", "% Asian population", sectionCancerRace, 0.543811087),
	key(pct("pctotherrace", "% of Other races", sectionCancerKey, 0.844356882)),
	pct("pctmarriedhouseholds", "% of households headed by married couples", sectionCancerFamily, 51.70068027),
	number("birthrate", "Births per 1,000 people per year", sectionCancerFamily, 0, 1000, 0.1, 5.356186395),
)
