package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecordFlashReadUpdatesCounters(t *testing.T) {
	m := New()
	m.BeginRequest()
	m.RecordFlashRead(TranslationPage)
	m.RecordFlashRead(DataPage)

	assert.Equal(t, int64(1), m.TPReads)
	assert.Equal(t, int64(1), m.DataReads)
	assert.Equal(t, int64(2), m.TotalFlashReads())
	assert.Equal(t, 2, m.RequestFlashReads())
}

func TestEndGetRequestHistogramAndLatency(t *testing.T) {
	m := New()

	m.BeginRequest()
	m.EndGetRequest(45.0) // 0 reads

	m.BeginRequest()
	m.RecordFlashRead(TranslationPage)
	m.EndGetRequest(45.0) // 1 read

	m.BeginRequest()
	m.RecordFlashRead(TranslationPage)
	m.RecordFlashRead(DataPage)
	m.EndGetRequest(45.0) // 2 reads

	assert.Equal(t, int64(1), m.ReadsByFlashCount[0])
	assert.Equal(t, int64(1), m.ReadsByFlashCount[1])
	assert.Equal(t, int64(1), m.ReadsByFlashCount[2])

	total := int64(0)
	for _, v := range m.ReadsByFlashCount {
		total += v
	}
	assert.Equal(t, int64(3), total)

	assert.InDelta(t, 45.0, m.AvgLatency(), 1e-9) // (0+45+90)/3
}

func TestCMTHitRateZeroWithNoLookups(t *testing.T) {
	m := New()
	assert.Equal(t, 0.0, m.CMTHitRate())
}

func TestCMTHitRate(t *testing.T) {
	m := New()
	m.CMTHits = 3
	m.CMTMisses = 1
	assert.InDelta(t, 0.75, m.CMTHitRate(), 1e-9)
}

func TestInlineRatio(t *testing.T) {
	m := New()
	assert.Equal(t, 0.0, m.InlineRatio())
	m.InlineEntries = 3
	m.RegularEntries = 1
	assert.InDelta(t, 0.75, m.InlineRatio(), 1e-9)
}

func TestWAFZeroWithNoHostWrites(t *testing.T) {
	m := New()
	assert.Equal(t, 0.0, m.WAF())
	m.HostWrites = 2
	m.FlashWrites = 5
	assert.InDelta(t, 2.5, m.WAF(), 1e-9)
}

func TestPercentileOverSamples(t *testing.T) {
	m := New()
	for _, reads := range []int{0, 1, 1, 2, 2, 2} {
		m.BeginRequest()
		for i := 0; i < reads; i++ {
			if i == 0 {
				m.RecordFlashRead(TranslationPage)
			} else {
				m.RecordFlashRead(DataPage)
			}
		}
		m.EndGetRequest(10.0)
	}
	assert.Equal(t, 0.0, m.Percentile(0))
	assert.InDelta(t, 20.0, m.Percentile(100), 1e-9)
}

func TestLatencyCDFMonotonic(t *testing.T) {
	m := New()
	for i := 0; i < 10; i++ {
		m.BeginRequest()
		m.RecordFlashRead(TranslationPage)
		m.EndGetRequest(float64(i))
	}
	points := m.LatencyCDF(4)
	assert.Len(t, points, 4)
	for i := 1; i < len(points); i++ {
		assert.GreaterOrEqual(t, points[i].LatencyUs, points[i-1].LatencyUs)
		assert.GreaterOrEqual(t, points[i].CDF, points[i-1].CDF)
	}
	assert.InDelta(t, 1.0, points[len(points)-1].CDF, 1e-9)
}

func TestLatencyCDFEmpty(t *testing.T) {
	m := New()
	assert.Nil(t, m.LatencyCDF(4))
}
