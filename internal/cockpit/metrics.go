// Package cockpit holds the metrics cockpit: per-region figures and the
// clickable district map.
package cockpit

import (
	"fmt"
	"hash/fnv"
	"math"
	"math/rand/v2"
)

// Tab is a cockpit dashboard page
type Tab string

const (
	TabOverview   Tab = "overview"
	TabRegistered Tab = "registered"
	TabFloating   Tab = "floating"
)

// TabInfo is a tab id with its label
type TabInfo struct {
	ID    Tab    `json:"id"`
	Label string `json:"label"`
}

var Tabs = []TabInfo{
	{TabOverview, "辖区概况驾驶舱"},
	{TabRegistered, "户籍人口驾驶舱"},
	{TabFloating, "流动人口驾驶舱"},
}

// ParseTab accepts a tab id.
func ParseTab(s string) (Tab, bool) {
	for _, t := range Tabs {
		if string(t.ID) == s {
			return t.ID, true
		}
	}
	return "", false
}

// Palette is the chart series color cycle.
var Palette = []string{"#3B82F6", "#10B981", "#F59E0B", "#EF4444", "#8B5CF6"}

// NamedValue is one chart datum
type NamedValue struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// Overview is the jurisdiction page
type Overview struct {
	Stations        int          `json:"stations"`
	Police          int          `json:"police"`
	Auxiliary       int          `json:"auxiliary"`
	CommunityPolice int          `json:"communityPolice"`
	ForceStructure  []NamedValue `json:"forceStructure"`
	PoliceAge       []NamedValue `json:"policeAge"`
	PoliceGender    []NamedValue `json:"policeGender"`
	AuxAge          []NamedValue `json:"auxAge"`
	AuxGender       []NamedValue `json:"auxGender"`
}

// CommunityRatio is community police as a percentage of all police.
func (o Overview) CommunityRatio() float64 {
	if o.Police == 0 {
		return 0
	}
	return float64(o.CommunityPolice) / float64(o.Police) * 100
}

// FourChanges is births, deaths, move-ins and move-outs
type FourChanges struct {
	Birth   int `json:"birth"`
	Death   int `json:"death"`
	MoveIn  int `json:"moveIn"`
	MoveOut int `json:"moveOut"`
}

// Registered is the household population page
type Registered struct {
	Total       int          `json:"total"`
	GrowthRate  string       `json:"growthRate"`
	GenderData  []NamedValue `json:"genderData"`
	AgeDist     []NamedValue `json:"ageDist"`
	Trend       []NamedValue `json:"trend"`
	FourChanges FourChanges  `json:"fourChanges"`
}

// Floating is the floating population page
type Floating struct {
	Total       int          `json:"total"`
	Separation  int          `json:"separation"`
	PermitRate  string       `json:"permitRate"`
	PermitCount int          `json:"permitCount"`
	SourceData  []NamedValue `json:"sourceData"`
	Trend       []NamedValue `json:"trend"`
	AgeDist     []NamedValue `json:"ageDist"`
	GenderData  []NamedValue `json:"genderData"`
}

// Data is every figure shown for one region
type Data struct {
	Region     string     `json:"region"`
	Multiplier float64    `json:"multiplier"`
	Overview   Overview   `json:"overview"`
	Registered Registered `json:"registered"`
	Floating   Floating   `json:"floating"`
}

// Multiplier scales city-wide figures down to a district.
func Multiplier(region string) float64 {
	switch region {
	case CityWide:
		return 1
	case "寿光市", "诸城市", "青州市":
		return 0.15
	case "奎文区", "潍城区":
		return 0.08
	}
	return 0.1
}

func scale(base, m float64) int {
	return int(math.Floor(base * m))
}

func orDefault(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

func seeded(region string) *rand.Rand {
	h := fnv.New64a()
	h.Write([]byte(region))
	sum := h.Sum64()
	return rand.New(rand.NewPCG(sum, sum>>1|1))
}

// RegionData computes the figures of a region. The random parts come from a
// generator seeded by the region name, so repeated calls agree.
func RegionData(region string) Data {
	m := Multiplier(region)
	r := seeded(region)

	civil := orDefault(scale(4500, m), 120)
	aux := orDefault(scale(6200, m), 200)
	community := scale(float64(civil), 0.35)

	floatingTotal := scale(2105600, m)
	permitRate := 85 + r.Float64()*10
	permitCount := scale(float64(floatingTotal), permitRate/100)

	of := func(total int, ratio float64) int { return scale(float64(total), ratio) }

	return Data{
		Region:     region,
		Multiplier: m,
		Overview: Overview{
			Stations:        orDefault(scale(168, m), 5),
			Police:          civil,
			Auxiliary:       aux,
			CommunityPolice: community,
			ForceStructure:  []NamedValue{{"民警", civil}, {"辅警", aux}},
			PoliceAge: []NamedValue{
				{"25岁以下", of(civil, 0.05)},
				{"26-35岁", of(civil, 0.35)},
				{"36-45岁", of(civil, 0.40)},
				{"46岁以上", of(civil, 0.20)},
			},
			PoliceGender: []NamedValue{{"男", of(civil, 0.85)}, {"女", of(civil, 0.15)}},
			AuxAge: []NamedValue{
				{"25岁以下", of(aux, 0.25)},
				{"26-35岁", of(aux, 0.45)},
				{"36-45岁", of(aux, 0.20)},
				{"46岁以上", of(aux, 0.10)},
			},
			AuxGender: []NamedValue{{"男", of(aux, 0.70)}, {"女", of(aux, 0.30)}},
		},
		Registered: Registered{
			Total:      scale(9380123, m),
			GrowthRate: fmt.Sprintf("%.2f", 0.45+r.Float64()*0.2),
			GenderData: []NamedValue{
				{"男性", 50 + r.IntN(2)},
				{"女性", 50 - r.IntN(2)},
			},
			AgeDist: []NamedValue{
				{"0-14岁", scale(1200, m)},
				{"15-59岁", scale(4500, m)},
				{"60岁+", scale(1800, m)},
			},
			Trend: []NamedValue{
				{"2019", scale(890, m)},
				{"2020", scale(910, m)},
				{"2021", scale(925, m)},
				{"2022", scale(932, m)},
				{"2023", scale(938, m)},
			},
			FourChanges: FourChanges{
				Birth:   scale(8500, m),
				Death:   scale(6200, m),
				MoveIn:  scale(12500, m),
				MoveOut: scale(9800, m),
			},
		},
		Floating: Floating{
			Total:       floatingTotal,
			Separation:  of(floatingTotal, 0.18),
			PermitRate:  fmt.Sprintf("%.1f", permitRate),
			PermitCount: permitCount,
			SourceData: []NamedValue{
				{"省内其他", 45},
				{"河南", 15},
				{"黑龙江", 12},
				{"河北", 8},
				{"其他", 20},
			},
			Trend: []NamedValue{
				{"1月", scale(210, m)},
				{"2月", scale(180, m)},
				{"3月", scale(250, m)},
				{"4月", scale(280, m)},
				{"5月", scale(300, m)},
				{"6月", scale(310, m)},
			},
			AgeDist: []NamedValue{
				{"18-25岁", of(floatingTotal, 0.20)},
				{"26-45岁", of(floatingTotal, 0.60)},
				{"46岁+", of(floatingTotal, 0.20)},
			},
			GenderData: []NamedValue{
				{"男性", of(floatingTotal, 0.55)},
				{"女性", of(floatingTotal, 0.45)},
			},
		},
	}
}
