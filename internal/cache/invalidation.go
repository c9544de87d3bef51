package cache

import (
	"context"
	"errors"
)

// gradeAggregatePatterns lists every key family derived from grade rows.
// A single grade change can move every student's rank, so the whole
// analytics namespace goes.
var gradeAggregatePatterns = []struct {
	helper  func(*CacheManager) *CacheHelper
	pattern string
}{
	{func(cm *CacheManager) *CacheHelper { return cm.Analytics }, "*"},
	{func(cm *CacheManager) *CacheHelper { return cm.Stats }, "overview*"},
}

// InvalidateGradeAggregates drops cached aggregates after a grade mutation.
// Every pattern is attempted even when an earlier one fails.
func (cm *CacheManager) InvalidateGradeAggregates(ctx context.Context) error {
	var errs []error
	for _, p := range gradeAggregatePatterns {
		if err := p.helper(cm).InvalidatePattern(ctx, p.pattern); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
