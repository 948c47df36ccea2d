// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

// Nechako returns the built-in Nechako Watershed catalog. Callers that
// maintain their own vocabulary load it from YAML instead; this is the
// default used when no catalog path is configured.
func Nechako() *Catalog {
	return &Catalog{
		Priority: []string{"watershed_terms", "rivers", "populated_places", "physiography"},
		PrimaryTerms: []string{
			"Takla Lake", "Ootsa Lake", "Stuart Lake", "Francois Lake",
			"Fraser Lake", "Babine Lake", "Burns Lake", "Pinchi Lake",
			"Cheslatta Lake", "Knewstubb Lake",
			"Nechako River", "Stuart River", "Endako River", "Stellako River",
			"Nautley River", "Nadina River", "Cheslatta River", "Fraser River",
		},
		Categories: []Category{
			{
				Name: "watershed_terms",
				Terms: terms(
					"Nechako", "Nechako Watershed", "Nechako Basin",
					"Nechako River System", "Fraser River", "British Columbia",
					"BC Interior", "Central Interior",
				),
			},
			{
				Name: "rivers",
				Terms: terms(
					"Nechako River", "Fraser River", "Stuart River", "Stellako River",
					"Endako River", "Nadina River", "Chelaslie River", "Cheslatta River",
					"Entiako River", "Kuzkwa River", "Necoslie River", "Nithi River",
					"Ocock River", "Sakeniche River", "Sinkut River", "St. Thomas River",
					"Tachie River", "Tetachuck River", "Tsilcoh River", "Driftwood River",
					"Chilako River", "Chezko River", "Blanchet River", "Middle River",
				),
			},
			{
				Name: "populated_places",
				Terms: terms(
					"Vanderhoof", "Prince George", "Fort St. James", "Fraser Lake",
					"Burns Lake", "Cheslatta", "Colleymount", "Danskin",
					"Decker Lake", "Endako", "Fort Fraser", "Francois Lake",
					"Grassy Plains", "Isle Pierre", "Leo Creek", "Mapes",
					"Marilla", "Middle River", "Nautley", "Noralee",
					"Nulki", "Ootsa Lake", "Pinchi", "Southbank",
					"Stellako", "Stony Creek", "Tachie", "Takla Landing",
					"Tintagel", "Wistaria", "Yekooche", "Wet'suwet'en Village",
				),
			},
			{
				Name: "physiography",
				Terms: terms(
					"Nechako Plateau", "Quanchus Range", "Vital Range", "Interior Plateau",
					"Omineca Mountains", "Coast Mountains", "Takla Range", "Whitesail Range",
					"Fawnie Range", "Hazelton Mountains", "Hogem Ranges", "Kasalka Range",
					"Murray Ridge", "Naglico Hills", "Nechako Range", "Shelford Hills",
					"Sibola Range", "Sitlika Range", "Tahtsa Ranges", "Tatuk Hills",
				),
			},
			{
				Name: "creeks",
				Terms: terms(
					"Baker Creek", "Baptiste Creek", "Chedakuz Creek", "Chilako Creek",
					"Cluculz Creek", "Coles Creek", "Corkscrew Creek", "Cutoff Creek",
					"Davidson Creek", "Eagle Creek", "Engen Creek", "Fawnie Creek",
					"Finger Creek", "Gerow Creek", "Graham Creek", "Greer Creek",
					"Inzana Creek", "Kazchek Creek", "Leo Creek", "Leona Creek",
					"Moxley Creek", "Murray Creek", "Ormond Creek", "Pinchi Creek",
					"Shovel Creek", "Sowchea Creek", "Stony Creek", "Tachick Creek",
					"Takysie Creek", "Tatuk Creek", "Tchesinkut Creek", "Tezzeron Creek",
					"Troitsa Creek", "Uncha Creek", "Whitefish Creek", "Willowy Creek",
				),
			},
			{
				Name: "lakes",
				Terms: terms(
					"Babine Lake", "Bednesti Lake", "Binta Lake", "Burns Lake",
					"Cheslatta Lake", "Cluculz Lake", "Cunningham Lake", "Decker Lake",
					"Entiako Lake", "Eutsuk Lake", "Finger Lake", "Fraser Lake",
					"Inzana Lake", "Kazchek Lake", "Knewstubb Lake", "Kuyakuz Lake",
					"Nadina Lake", "Natalkuz Lake", "Ness Lake", "Nulki Lake",
					"Ootsa Lake", "Ormond Lake", "Pinchi Lake", "Reid Lake",
					"Sinkut Lake", "Skins Lake", "Stuart Lake", "Tachick Lake",
					"Tahtsa Lake", "Takla Lake", "Takysie Lake", "Tchesinkut Lake",
					"Tezzeron Lake", "Trembleur Lake", "Uncha Lake", "Whitesail Lake",
					Term{Canonical: "François Lake", Variants: []string{"Francois Lake"}},
					Term{Canonical: "Hautête Lake", Variants: []string{"Hautete Lake"}},
				),
			},
		},
	}
}

// terms builds a Term slice from plain names, accepting ready-made Terms
// for entries that carry explicit variants.
func terms(entries ...any) []Term {
	out := make([]Term, 0, len(entries))
	for _, e := range entries {
		switch v := e.(type) {
		case string:
			out = append(out, Term{Canonical: v})
		case Term:
			out = append(out, v)
		}
	}
	return out
}
