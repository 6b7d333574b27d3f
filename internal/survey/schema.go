package survey

// BuildSchema returns the JSON Schema (draft 2020-12 subset) for a
// DirectionalSurvey as a generic map. It is sent to the extraction backend as
// a structured-output constraint and used locally to validate what comes
// back. The schema is closed: additionalProperties is false at every level,
// so a hallucinated field name fails the whole page instead of slipping
// through. Every property is listed as required (strict structured-output
// mode); optional fields are nullable rather than omittable.
func BuildSchema() map[string]any {
	pointProps := map[string]any{
		"md":  numberProp("Measured Depth (e.g. survey or MD)"),
		"inc": numberProp("Inclination in degrees"),
		"azi": numberProp("Azimuth in degrees"),
		"tvd": numberProp("True Vertical Depth"),
		"ns":  numberProp("Northing in local grid coordinates"),
		"ew":  numberProp("Easting in local grid coordinates"),
	}
	point := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           pointProps,
		"required":             []string{"md", "inc", "azi", "tvd", "ns", "ew"},
	}

	props := map[string]any{
		"uwi": map[string]any{
			"type":        "string",
			"description": "Unique Well Identifier/API number",
		},
		"survey_points": map[string]any{
			"type":        "array",
			"description": "Ordered list of directional survey points",
			"items":       point,
		},

		"operator":     nullableString("Operating company name"),
		"vendor":       nullableString("Trajectory service vendor"),
		"contact_info": nullableString("Contact information for the service company (email/phone)"),
		"county":       nullableString("County where the well is located"),

		"method":    nullableString("Survey calculation method (e.g. minimum curvature)"),
		"north_ref": nullableString("North reference (e.g. true north, grid north)"),

		"shl_lat": nullableString("Surface Hole Location or SHL or S/H or Under the Well section: Latitude. " +
			"if given in degree format, MUST BE CONVERTED TO DECIMAL FORMAT"),
		"shl_lon": nullableString("Surface Hole Location or SHL or S/H or Under the Well section: Longitude. " +
			"if given in degree format, MUST BE CONVERTED TO DECIMAL FORMAT"),
		"shl_x": nullableString("SHL X coordinate (local grid)"),
		"shl_y": nullableString("SHL Y coordinate (local grid)"),

		"bhl_lat": nullableString("BHL latitude (WGS84)"),
		"bhl_lon": nullableString("BHL longitude (WGS84)"),
		"bhl_x":   nullableString("BHL X coordinate (local grid)"),
		"bhl_y":   nullableString("BHL Y coordinate (local grid)"),

		"lease_location": nullableString("Lease or site location name"),
		"job_number":     nullableString("Job number or identifier"),

		"map_zone":     nullableString("Coordinate reference system (CRS) (e.g. Texas Central, Texas North)"),
		"map_system":   nullableString("Map projection/system or map system used (e.g. State Plane, UTM)"),
		"geo_datum":    nullableString("Geodetic datum or Geodetic System or Geo Datum"),
		"system_datum": nullableString("System datum or Vertical datum (e.g. MSL, Mean Sea Level)"),
		"ground_level_elevation": nullableNumericString("Ground Level or GL Elevation or GL @. " +
			"Usually that will be MD reference (do not include units in the value, just the number)"),
		"datum_elevation": nullableNumericString("Datum elevation or MD reference or TVD reference or the number " +
			"after @ in MD Reference. (do not include units in the value, just the number)"),

		"date_created": nullableString("Date the survey or document was created"),
	}

	required := make([]string, 0, len(props))
	required = append(required, "uwi", "survey_points")
	for _, f := range MetadataFields {
		if f != FieldUWI {
			required = append(required, f)
		}
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
		"required":             required,
	}
}

func numberProp(desc string) map[string]any {
	return map[string]any{"type": "number", "description": desc}
}

func nullableString(desc string) map[string]any {
	return map[string]any{"type": []string{"string", "null"}, "description": desc}
}

// nullableNumericString constrains elevation-like fields to bare numbers so a
// unit-bearing value ("2740 ft") fails the page instead of corrupting
// downstream parses.
func nullableNumericString(desc string) map[string]any {
	return map[string]any{
		"type":        []string{"string", "null"},
		"pattern":     `^-?\d+(\.\d+)?$`,
		"description": desc,
	}
}
