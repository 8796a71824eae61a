package stats

import (
	"math"
	"sync"

	"gorm.io/gorm"

	"playlater/models"
)

// PlaythroughStats summarizes a user's playthrough history.
type PlaythroughStats struct {
	TotalPlaythroughs    int64                 `json:"total_playthroughs"`
	ByStatus             map[string]int64      `json:"by_status"`
	ByPlatform           map[string]int64      `json:"by_platform"`
	CompletionRate       float64               `json:"completion_rate"`
	AverageRating        float64               `json:"average_rating"`
	TotalPlayTimeHours   float64               `json:"total_play_time_hours"`
	AveragePlayTimeHours float64               `json:"average_play_time_hours"`
	YearlyStats          map[string]YearlyStat `json:"yearly_stats"`
}

// YearlyStat is per-year completion volume and time sunk.
type YearlyStat struct {
	Completed      int64   `json:"completed"`
	TotalTimeHours float64 `json:"total_time_hours"`
}

// CollectionStats summarizes a user's collection.
type CollectionStats struct {
	TotalGames        int64                   `json:"total_games"`
	ByPlatform        map[string]int64        `json:"by_platform"`
	ByAcquisitionType map[string]int64        `json:"by_acquisition_type"`
	ByPriority        map[string]int64        `json:"by_priority"`
	ValueEstimate     float64                 `json:"value_estimate"`
	RecentAdditions   []models.CollectionItem `json:"recent_additions"`
}

// Rough per-copy price assumptions for the collection value estimate.
const (
	digitalPriceEstimate  = 45.99
	physicalPriceEstimate = 59.99
)

type groupRow struct {
	Key   string
	Count int64
}

// CalculatePlaythroughStats runs the independent aggregate queries
// concurrently and assembles the summary. The first query error wins.
func CalculatePlaythroughStats(db *gorm.DB, userID string) (*PlaythroughStats, error) {
	stats := &PlaythroughStats{
		ByStatus:    make(map[string]int64),
		ByPlatform:  make(map[string]int64),
		YearlyStats: make(map[string]YearlyStat),
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	fail := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
	}
	base := func() *gorm.DB {
		return db.Model(&models.Playthrough{}).Where("user_id = ?", userID)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := base().Count(&stats.TotalPlaythroughs).Error; err != nil {
			fail(err)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		var rows []groupRow
		err := base().Select("status AS key, COUNT(*) AS count").Group("status").Scan(&rows).Error
		if err != nil {
			fail(err)
			return
		}
		mu.Lock()
		for _, r := range rows {
			stats.ByStatus[r.Key] = r.Count
		}
		mu.Unlock()
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		var rows []groupRow
		err := base().Select("platform AS key, COUNT(*) AS count").Group("platform").Scan(&rows).Error
		if err != nil {
			fail(err)
			return
		}
		mu.Lock()
		for _, r := range rows {
			stats.ByPlatform[r.Key] = r.Count
		}
		mu.Unlock()
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		var agg struct {
			Total     int64
			Completed int64
			AvgRating float64
			TotalTime float64
		}
		err := base().Select(
			"COUNT(*) AS total, " +
				"COUNT(*) FILTER (WHERE status IN ('COMPLETED', 'MASTERED')) AS completed, " +
				"COALESCE(AVG(rating), 0) AS avg_rating, " +
				"COALESCE(SUM(play_time_hours), 0) AS total_time").
			Scan(&agg).Error
		if err != nil {
			fail(err)
			return
		}
		mu.Lock()
		if agg.Total > 0 {
			stats.CompletionRate = round2(float64(agg.Completed) / float64(agg.Total) * 100)
			stats.AveragePlayTimeHours = round2(agg.TotalTime / float64(agg.Total))
		}
		stats.AverageRating = round2(agg.AvgRating)
		stats.TotalPlayTimeHours = round2(agg.TotalTime)
		mu.Unlock()
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		var rows []struct {
			Year      string
			Completed int64
			TotalTime float64
		}
		err := base().Select(
			"EXTRACT(YEAR FROM completed_at)::text AS year, "+
				"COUNT(*) AS completed, "+
				"COALESCE(SUM(play_time_hours), 0) AS total_time").
			Where("completed_at IS NOT NULL AND status IN ?", []string{"COMPLETED", "MASTERED"}).
			Group("EXTRACT(YEAR FROM completed_at)").
			Scan(&rows).Error
		if err != nil {
			fail(err)
			return
		}
		mu.Lock()
		for _, r := range rows {
			stats.YearlyStats[r.Year] = YearlyStat{Completed: r.Completed, TotalTimeHours: round2(r.TotalTime)}
		}
		mu.Unlock()
	}()

	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}
	return stats, nil
}

// CalculateCollectionStats mirrors the playthrough fan-out for the
// collection side. Only active items count.
func CalculateCollectionStats(db *gorm.DB, userID string) (*CollectionStats, error) {
	stats := &CollectionStats{
		ByPlatform:        make(map[string]int64),
		ByAcquisitionType: make(map[string]int64),
		ByPriority:        make(map[string]int64),
		RecentAdditions:   []models.CollectionItem{},
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	fail := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
	}
	base := func() *gorm.DB {
		return db.Model(&models.CollectionItem{}).Where("user_id = ? AND is_active = ?", userID, true)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := base().Count(&stats.TotalGames).Error; err != nil {
			fail(err)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		var rows []groupRow
		err := base().Select("platform AS key, COUNT(*) AS count").Group("platform").Scan(&rows).Error
		if err != nil {
			fail(err)
			return
		}
		mu.Lock()
		for _, r := range rows {
			stats.ByPlatform[r.Key] = r.Count
		}
		mu.Unlock()
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		var rows []groupRow
		err := base().Select("acquisition_type AS key, COUNT(*) AS count").Group("acquisition_type").Scan(&rows).Error
		if err != nil {
			fail(err)
			return
		}
		mu.Lock()
		for _, r := range rows {
			stats.ByAcquisitionType[r.Key] = r.Count
			switch r.Key {
			case "DIGITAL", "SUBSCRIPTION":
				stats.ValueEstimate += float64(r.Count) * digitalPriceEstimate
			case "PHYSICAL":
				stats.ValueEstimate += float64(r.Count) * physicalPriceEstimate
			}
		}
		stats.ValueEstimate = round2(stats.ValueEstimate)
		mu.Unlock()
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		var rows []groupRow
		err := base().Select("COALESCE(priority::text, 'unset') AS key, COUNT(*) AS count").
			Group("priority").Scan(&rows).Error
		if err != nil {
			fail(err)
			return
		}
		mu.Lock()
		for _, r := range rows {
			stats.ByPriority[r.Key] = r.Count
		}
		mu.Unlock()
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		var items []models.CollectionItem
		err := db.Preload("Game").
			Where("user_id = ? AND is_active = ?", userID, true).
			Order("created_at DESC").
			Limit(5).
			Find(&items).Error
		if err != nil {
			fail(err)
			return
		}
		mu.Lock()
		stats.RecentAdditions = items
		mu.Unlock()
	}()

	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}
	return stats, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
