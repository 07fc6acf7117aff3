package catalog

// Fallback rates and fees per Fondo MiVivienda / SBS publications, March 2025.
// Live feed rates override AnnualRate at resolution time; everything else here
// is authoritative.
var defaultBanks = []BankStaticConfig{
	{
		ID:                        "bbva",
		Name:                      "BBVA",
		FullName:                  "Banco BBVA Perú",
		AnnualRate:                0.0753,
		RateType:                  RateTypeEffective,
		LifeInsuranceMonthly:      0.00028,
		JointLifeInsuranceMonthly: 0.00052,
		PropertyInsuranceAnnual:   0.0015,
		DisbursementFee:           500,
		AppraisalFee:              265,
		AdminFeeMonthly:           30,
		PostageMonthly:            15,
		DaysPerYear:               360,
		PaymentFrequencyDays:      30,
		MinDownPaymentRatio:       0.10,
		MinTermYears:              5,
		MaxTermYears:              30,
		MinLoanAmount:             64200,
		MaxLoanAmount:             464200,
		BonusEligible:             true,
	},
	{
		ID:                        "bcp",
		Name:                      "BCP",
		FullName:                  "Banco de Crédito del Perú",
		AnnualRate:                0.0862,
		RateType:                  RateTypeEffective,
		LifeInsuranceMonthly:      0.00030,
		JointLifeInsuranceMonthly: 0.00055,
		PropertyInsuranceAnnual:   0.0018,
		DisbursementFee:           600,
		AppraisalFee:              265,
		AdminFeeMonthly:           35,
		PostageMonthly:            20,
		DaysPerYear:               360,
		PaymentFrequencyDays:      30,
		MinDownPaymentRatio:       0.10,
		MinTermYears:              5,
		MaxTermYears:              30,
		MinLoanAmount:             64200,
		MaxLoanAmount:             464200,
		BonusEligible:             true,
	},
	{
		ID:                        "interbank",
		Name:                      "Interbank",
		FullName:                  "Interbank Perú",
		AnnualRate:                0.0794,
		RateType:                  RateTypeEffective,
		LifeInsuranceMonthly:      0.00028,
		JointLifeInsuranceMonthly: 0.00052,
		PropertyInsuranceAnnual:   0.0016,
		DisbursementFee:           550,
		AppraisalFee:              265,
		AdminFeeMonthly:           32,
		PostageMonthly:            18,
		DaysPerYear:               360,
		PaymentFrequencyDays:      30,
		MinDownPaymentRatio:       0.10,
		MinTermYears:              5,
		MaxTermYears:              30,
		MinLoanAmount:             64200,
		MaxLoanAmount:             464200,
		BonusEligible:             true,
	},
	{
		ID:                        "scotiabank",
		Name:                      "Scotiabank",
		FullName:                  "Scotiabank Perú",
		AnnualRate:                0.0800,
		RateType:                  RateTypeEffective,
		LifeInsuranceMonthly:      0.00032,
		JointLifeInsuranceMonthly: 0.00058,
		PropertyInsuranceAnnual:   0.0017,
		DisbursementFee:           580,
		AppraisalFee:              265,
		AdminFeeMonthly:           33,
		PostageMonthly:            19,
		DaysPerYear:               360,
		PaymentFrequencyDays:      30,
		MinDownPaymentRatio:       0.10,
		MinTermYears:              5,
		MaxTermYears:              30,
		MinLoanAmount:             64200,
		MaxLoanAmount:             464200,
		BonusEligible:             true,
	},
	{
		ID:                        "gnb",
		Name:                      "GNB",
		FullName:                  "Banco GNB Perú",
		AnnualRate:                0.0790,
		RateType:                  RateTypeEffective,
		LifeInsuranceMonthly:      0.00029,
		JointLifeInsuranceMonthly: 0.00053,
		PropertyInsuranceAnnual:   0.0015,
		DisbursementFee:           520,
		AppraisalFee:              265,
		AdminFeeMonthly:           31,
		PostageMonthly:            17,
		DaysPerYear:               360,
		PaymentFrequencyDays:      30,
		MinDownPaymentRatio:       0.10,
		MinTermYears:              5,
		MaxTermYears:              30,
		MinLoanAmount:             64200,
		MaxLoanAmount:             464200,
		BonusEligible:             true,
	},
	{
		ID:                        "pichincha",
		Name:                      "Pichincha",
		FullName:                  "Banco Pichincha Perú",
		AnnualRate:                0.0850,
		RateType:                  RateTypeEffective,
		LifeInsuranceMonthly:      0.00031,
		JointLifeInsuranceMonthly: 0.00056,
		PropertyInsuranceAnnual:   0.0017,
		DisbursementFee:           560,
		AppraisalFee:              265,
		AdminFeeMonthly:           34,
		PostageMonthly:            18,
		DaysPerYear:               360,
		PaymentFrequencyDays:      30,
		MinDownPaymentRatio:       0.10,
		MinTermYears:              5,
		MaxTermYears:              30,
		MinLoanAmount:             64200,
		MaxLoanAmount:             464200,
		BonusEligible:             true,
	},
	{
		ID:                        CustomBankID,
		Name:                      "Personalizado",
		FullName:                  "Configuración Personalizada",
		AnnualRate:                0.09,
		RateType:                  RateTypeNominal,
		LifeInsuranceMonthly:      0.0015,
		JointLifeInsuranceMonthly: 0.0028,
		PropertyInsuranceAnnual:   0.0020,
		DisbursementFee:           500,
		AppraisalFee:              300,
		AdminFeeMonthly:           50,
		PostageMonthly:            20,
		DaysPerYear:               360,
		PaymentFrequencyDays:      30,
		MinDownPaymentRatio:       0.10,
		MinTermYears:              5,
		MaxTermYears:              30,
		MinLoanAmount:             50000,
		MaxLoanAmount:             5000000,
		BonusEligible:             false,
	},
}
