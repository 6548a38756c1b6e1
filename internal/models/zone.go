package models

import (
	"fmt"
	"math"
	"strings"
	"time"
)

type ZoneKind string

const (
	ZoneDemand ZoneKind = "demand"
	ZoneSupply ZoneKind = "supply"
)

type ZoneOrigin string

const (
	OriginStrict ZoneOrigin = "strict"
	OriginFast   ZoneOrigin = "fast"
)

type Provenance string

const (
	ProvenanceOriginal Provenance = "original"
	ProvenanceFlipped  Provenance = "flipped"
)

// Zone — уровень, от которого ждём реакцию цены.
// Идентичность зоны — её цена (с допуском), а не отдельный id:
// две зоны на одном уровне сходятся в одно состояние касаний.
type Zone struct {
	Price      float64
	Kind       ZoneKind
	Origin     ZoneOrigin
	Provenance Provenance
	CreatedAt  time.Time
}

// Opposite возвращает противоположный вид зоны (для флипа).
func (k ZoneKind) Opposite() ZoneKind {
	if k == ZoneDemand {
		return ZoneSupply
	}
	return ZoneDemand
}

func (z Zone) Label() string {
	origin := "STRICT"
	if z.Origin == OriginFast {
		origin = "FAST"
	}
	return origin + " " + strings.ToUpper(string(z.Kind))
}

// SameLevel — зоны считаются одним уровнем при совпадении цены с допуском.
func (z Zone) SameLevel(other Zone, tolerance float64) bool {
	return math.Abs(z.Price-other.Price) <= tolerance
}

// ParseZoneTag разбирает строковую метку зоны из внешнего источника.
// Допустимые метки: "demand", "supply", "fast_demand", "fast_supply",
// "fast demand", "fast supply". Всё остальное — MalformedZone: ошибку
// логируем и пропускаем только эту зону.
func ParseZoneTag(tag string) (ZoneKind, ZoneOrigin, error) {
	norm := strings.ToLower(strings.TrimSpace(tag))
	norm = strings.ReplaceAll(norm, " ", "_")
	switch norm {
	case "demand":
		return ZoneDemand, OriginStrict, nil
	case "supply":
		return ZoneSupply, OriginStrict, nil
	case "fast_demand":
		return ZoneDemand, OriginFast, nil
	case "fast_supply":
		return ZoneSupply, OriginFast, nil
	}
	return "", "", fmt.Errorf("malformed zone tag %q", tag)
}
