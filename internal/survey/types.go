// Package survey defines the directional-survey data model extracted from
// scanned plat documents: one station record (SurveyPoint) and the merged
// document-level record (DirectionalSurvey).
package survey

// SurveyPoint is one station along the wellbore trajectory.
// All fields are required; the extraction schema rejects partial points.
type SurveyPoint struct {
	MD  float64 `json:"md"`
	Inc float64 `json:"inc"`
	Azi float64 `json:"azi"`
	TVD float64 `json:"tvd"`
	NS  float64 `json:"ns"`
	EW  float64 `json:"ew"`
}

// DirectionalSurvey is the structured record for one well document.
// Per-page instances come out of the structured extractor; the merger folds
// them into a single document-level instance. Optional metadata uses pointer
// strings: nil means "never observed" and is omitted when serialized, which
// downstream consumers treat differently from an observed empty value.
type DirectionalSurvey struct {
	UWI          string        `json:"uwi"`
	SurveyPoints []SurveyPoint `json:"survey_points"`

	// Survey metadata
	Operator    *string `json:"operator,omitempty"`
	Vendor      *string `json:"vendor,omitempty"`
	ContactInfo *string `json:"contact_info,omitempty"`
	County      *string `json:"county,omitempty"`

	Method   *string `json:"method,omitempty"`
	NorthRef *string `json:"north_ref,omitempty"`

	// Surface Hole Location (SHL)
	SHLLat *string `json:"shl_lat,omitempty"`
	SHLLon *string `json:"shl_lon,omitempty"`
	SHLX   *string `json:"shl_x,omitempty"`
	SHLY   *string `json:"shl_y,omitempty"`

	// Bottom Hole Location (BHL)
	BHLLat *string `json:"bhl_lat,omitempty"`
	BHLLon *string `json:"bhl_lon,omitempty"`
	BHLX   *string `json:"bhl_x,omitempty"`
	BHLY   *string `json:"bhl_y,omitempty"`

	// Job/site metadata
	LeaseLocation *string `json:"lease_location,omitempty"`
	JobNumber     *string `json:"job_number,omitempty"`

	// Map and datum information
	MapZone              *string `json:"map_zone,omitempty"`
	MapSystem            *string `json:"map_system,omitempty"`
	GeoDatum             *string `json:"geo_datum,omitempty"`
	SystemDatum          *string `json:"system_datum,omitempty"`
	GroundLevelElevation *string `json:"ground_level_elevation,omitempty"`
	DatumElevation       *string `json:"datum_elevation,omitempty"`

	// Document metadata
	DateCreated *string `json:"date_created,omitempty"`
}

// FieldUWI is the well identifier field name. It participates in the
// first-non-empty metadata merge like every other scalar field.
const FieldUWI = "uwi"

// MetadataFields is the canonical scalar field order. The merger scans it in
// this order and the CSV exporter emits metadata columns in this order.
var MetadataFields = []string{
	FieldUWI, "operator", "vendor", "contact_info", "county", "method", "north_ref",
	"shl_lat", "shl_lon", "shl_x", "shl_y", "bhl_lat", "bhl_lon", "bhl_x", "bhl_y",
	"lease_location", "job_number", "map_system", "geo_datum", "system_datum", "map_zone",
	"ground_level_elevation", "datum_elevation", "date_created",
}

// PointFields is the fixed CSV column order for survey point values.
var PointFields = []string{"md", "inc", "azi", "tvd", "ns", "ew"}

// MetadataValue returns the value of the named scalar field. The second
// return is false when the field is nil or empty, or the name is unknown.
func (d *DirectionalSurvey) MetadataValue(name string) (string, bool) {
	if name == FieldUWI {
		return d.UWI, d.UWI != ""
	}
	p := d.fieldPtr(name)
	if p == nil || *p == nil || **p == "" {
		return "", false
	}
	return **p, true
}

// SetMetadataValue sets the named scalar field. Unknown names are ignored.
func (d *DirectionalSurvey) SetMetadataValue(name, value string) {
	if name == FieldUWI {
		d.UWI = value
		return
	}
	if p := d.fieldPtr(name); p != nil {
		v := value
		*p = &v
	}
}

// fieldPtr maps a JSON field name to the address of its struct field.
func (d *DirectionalSurvey) fieldPtr(name string) **string {
	switch name {
	case "operator":
		return &d.Operator
	case "vendor":
		return &d.Vendor
	case "contact_info":
		return &d.ContactInfo
	case "county":
		return &d.County
	case "method":
		return &d.Method
	case "north_ref":
		return &d.NorthRef
	case "shl_lat":
		return &d.SHLLat
	case "shl_lon":
		return &d.SHLLon
	case "shl_x":
		return &d.SHLX
	case "shl_y":
		return &d.SHLY
	case "bhl_lat":
		return &d.BHLLat
	case "bhl_lon":
		return &d.BHLLon
	case "bhl_x":
		return &d.BHLX
	case "bhl_y":
		return &d.BHLY
	case "lease_location":
		return &d.LeaseLocation
	case "job_number":
		return &d.JobNumber
	case "map_zone":
		return &d.MapZone
	case "map_system":
		return &d.MapSystem
	case "geo_datum":
		return &d.GeoDatum
	case "system_datum":
		return &d.SystemDatum
	case "ground_level_elevation":
		return &d.GroundLevelElevation
	case "datum_elevation":
		return &d.DatumElevation
	case "date_created":
		return &d.DateCreated
	default:
		return nil
	}
}
