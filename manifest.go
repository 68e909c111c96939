package main

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// ManifestSuffix ends the key of every report manifest.
const ManifestSuffix = "Manifest.json"

// cycleRegexp finds the billing cycle directory in a manifest key, e.g.
// "20160401-20160501".
var cycleRegexp = regexp.MustCompile(`/(\d{8}-\d{8})/`)

// Manifest represents data read from a billing report manifest
type Manifest struct {
	AssemblyID    string `json:"assemblyId"`
	Account       string `json:"account"`
	Charset       string `json:"charset"`
	Compression   string `json:"compression"`
	ContentType   string `json:"contentType"`
	ReportID      string `json:"reportId"`
	ReportName    string `json:"reportName"`
	BillingPeriod struct {
		Start string `json:"start"`
		End   string `json:"end"`
	} `json:"billingPeriod"`
	Bucket     string   `json:"bucket"`
	ReportKeys []string `json:"reportKeys"`
}

// Cycle returns the billing period as "YYYYMMDD-YYYYMMDD", the way it is
// named in report keys.
func (m *Manifest) Cycle() string {
	start := strings.Split(m.BillingPeriod.Start, "T")[0]
	end := strings.Split(m.BillingPeriod.End, "T")[0]
	return fmt.Sprintf("%s-%s", start, end)
}

// Gzipped reports whether the manifest's report files are gzip compressed.
func (m *Manifest) Gzipped() bool {
	return strings.EqualFold(m.Compression, "GZIP")
}

// manifestCycles groups manifest keys by billing cycle. Keys that aren't
// manifests or aren't under a cycle directory are left out.
func manifestCycles(keys []string) map[string][]string {
	cycles := make(map[string][]string)
	for _, key := range keys {
		if !strings.HasSuffix(key, ManifestSuffix) {
			continue
		}
		match := cycleRegexp.FindStringSubmatch(key)
		if match == nil {
			continue
		}
		cycles[match[1]] = append(cycles[match[1]], key)
	}
	return cycles
}

// primaryManifest returns the manifest at the top of a cycle directory.
// Every report run also leaves a copy under an assemblyId subdirectory;
// those keys are longer. Equal lengths are ordered by key.
func primaryManifest(keys []string) string {
	primary := keys[0]
	for _, key := range keys[1:] {
		if len(key) < len(primary) || (len(key) == len(primary) && key < primary) {
			primary = key
		}
	}
	return primary
}

func sortedCycles(cycles map[string][]string) []string {
	labels := make([]string, 0, len(cycles))
	for label := range cycles {
		labels = append(labels, label)
	}
	// Cycle labels are zero padded dates, so this is chronological
	sort.Strings(labels)
	return labels
}

// ResolvePrimaryManifests picks the primary manifests of the two most recent
// billing cycles from a bucket listing, oldest first. If the listing only
// has one cycle, the result has a single element.
//
// Manifests are expected at
//
//	<prefix>/<report-name>/YYYYMMDD-YYYYMMDD/<report-name>-Manifest.json
//
// next to copies at
//
//	<prefix>/<report-name>/YYYYMMDD-YYYYMMDD/<assemblyId>/<report-name>-Manifest.json
//
// which are ignored. Deeper nesting than that isn't handled.
func ResolvePrimaryManifests(keys []string) ([]string, error) {
	cycles := manifestCycles(keys)
	if len(cycles) == 0 {
		return nil, &ResolutionError{Reason: "no manifest found under a billing cycle directory"}
	}
	labels := sortedCycles(cycles)
	if len(labels) > 2 {
		labels = labels[len(labels)-2:]
	}
	primaries := make([]string, len(labels))
	for i, label := range labels {
		primaries[i] = primaryManifest(cycles[label])
	}
	return primaries, nil
}

// AllPrimaryManifests returns the primary manifest of every billing cycle in
// a bucket listing, oldest first.
func AllPrimaryManifests(keys []string) ([]string, error) {
	cycles := manifestCycles(keys)
	if len(cycles) == 0 {
		return nil, &ResolutionError{Reason: "no manifest found under a billing cycle directory"}
	}
	labels := sortedCycles(cycles)
	primaries := make([]string, len(labels))
	for i, label := range labels {
		primaries[i] = primaryManifest(cycles[label])
	}
	return primaries, nil
}
