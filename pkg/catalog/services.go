package catalog

// Depth intervals and statistics of the quantitative services.
var (
	standardDepths = []string{"0-5cm", "5-15cm", "15-30cm", "30-60cm", "60-100cm", "100-200cm"}
	stockDepths    = []string{"0-30cm"}
	statistics     = []string{"Q0.05", "Q0.5", "Q0.95", "mean", "uncertainty"}
)

// depthCoverages expands depths x statistics into "{depth}_{statistic}" ids,
// depth-major with the statistics in a fixed order for every depth.
func depthCoverages(depths []string) []string {
	out := make([]string, 0, len(depths)*len(statistics))
	for _, d := range depths {
		for _, s := range statistics {
			out = append(out, d+"_"+s)
		}
	}
	return out
}

func quantitative(id, description, source string, factor float64, target string, depths []string) Service {
	return Service{
		ID:               id,
		Description:      description,
		Category:         Quantitative,
		SourceUnit:       source,
		TargetUnit:       target,
		ConversionFactor: factor,
		Coverages:        depthCoverages(depths),
	}
}

// serviceList is the service table in declaration order.
var serviceList = []Service{
	quantitative("bdod", "Bulk density of the fine earth fraction",
		"cg/cm³", 100, "kg/dm³", standardDepths),
	quantitative("cec", "Cation Exchange Capacity of the soil",
		"mmol(c)/kg", 10, "cmol(c)/kg", standardDepths),
	quantitative("cfvo", "Volumetric fraction of coarse fragments (> 2 mm)",
		"cm³/dm³ (vol%)", 10, "cm³/100cm³ (vol%)", standardDepths),
	quantitative("clay", "Proportion of clay particles (< 0.002 mm) in the fine earth fraction",
		"g/kg", 10, "g/100g (%)", standardDepths),
	{
		ID:          "landmask",
		Description: "Land Mask",
		Category:    BooleanLayer,
		Coverages:   []string{"SG_052020_COG512"},
	},
	quantitative("nitrogen", "Total nitrogen (N)",
		"cg/kg", 100, "g/kg", standardDepths),
	quantitative("phh2o", "Soil pH",
		"pH x 10", 10, "pH", standardDepths),
	quantitative("sand", "Proportion of sand particles (> 0.05/0.063 mm) in the fine earth fraction",
		"g/kg", 10, "g/100g (%)", standardDepths),
	quantitative("silt", "Proportion of silt particles (≥ 0.002 mm and ≤ 0.05/0.063 mm) in the fine earth fraction",
		"g/kg", 10, "g/100g (%)", standardDepths),
	quantitative("soc", "Soil organic carbon content in the fine earth fraction",
		"dg/kg", 10, "g/kg", standardDepths),
	quantitative("ocd", "Organic carbon density",
		"hg/m³", 10, "kg/m³", standardDepths),
	quantitative("ocs", "Organic carbon stocks",
		"t/ha", 10, "kg/m²", stockDepths),
	{
		ID:          "wrb",
		Description: "World Reference Base for Soil Resources",
		Category:    Classification,
		Coverages: []string{
			"Acrisols", "Albeluvisols", "Alisols", "Andosols", "Arenosols",
			"Calcisols", "Cambisols", "Chernozems", "Cryosols", "Durisols",
			"Ferralsols", "Fluvisols", "Gleysols", "Gypsisols", "Histosols",
			"Kastanozems", "Leptosols", "Lixisols", "Luvisols", "MostProbable",
			"Nitisols", "Phaeozems", "Planosols", "Plinthosols", "Podzols",
			"Regosols", "Solonchaks", "Solonetz", "Stagnosols", "Umbrisols",
			"Vertisols",
		},
	},
}

var services, serviceOrder = func() (map[string]Service, []string) {
	m := make(map[string]Service, len(serviceList))
	order := make([]string, 0, len(serviceList))
	for _, s := range serviceList {
		m[s.ID] = s
		order = append(order, s.ID)
	}
	return m, order
}()
