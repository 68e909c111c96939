package main

// NoRegion is used for line items that can't be attributed to a region.
const NoRegion = "noregion"

// regionNames maps the console location names used in product/location to
// region codes.
var regionNames = map[string]string{
	"US East (N. Virginia)":      "us-east-1",
	"US East (Ohio)":             "us-east-2",
	"US West (N. California)":    "us-west-1",
	"US West (Oregon)":           "us-west-2",
	"AWS GovCloud (US)":          "us-gov-west-1",
	"Canada (Central)":           "ca-central-1",
	"EU (Ireland)":               "eu-west-1",
	"EU (London)":                "eu-west-2",
	"EU (Paris)":                 "eu-west-3",
	"EU (Frankfurt)":             "eu-central-1",
	"EU (Stockholm)":             "eu-north-1",
	"Asia Pacific (Tokyo)":       "ap-northeast-1",
	"Asia Pacific (Seoul)":       "ap-northeast-2",
	"Asia Pacific (Osaka-Local)": "ap-northeast-3",
	"Asia Pacific (Singapore)":   "ap-southeast-1",
	"Asia Pacific (Sydney)":      "ap-southeast-2",
	"Asia Pacific (Mumbai)":      "ap-south-1",
	"South America (Sao Paulo)":  "sa-east-1",
}

// ResolveRegion returns the region code for a line item. Most services fill
// in product/location; some, ElastiCache among them, only set
// lineItem/AvailabilityZone. The location is always tried first.
func ResolveRegion(location, availabilityZone string) string {
	if region, ok := regionNames[location]; ok {
		return region
	}
	az := availabilityZone
	if az == "" {
		return NoRegion
	}
	// "us-east-1a" names a zone within us-east-1
	if n := len(az); n > 1 && isLowerLetter(az[n-1]) && isDigit(az[n-2]) {
		az = az[:n-1]
	}
	if isDigit(az[len(az)-1]) {
		return az
	}
	return NoRegion
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isLowerLetter(c byte) bool {
	return c >= 'a' && c <= 'z'
}
