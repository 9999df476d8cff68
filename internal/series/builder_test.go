package series

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ginjaninja78/contas-publicas/internal/types"
)

func agg(source string, year int, month time.Month, total float64, cats map[string]float64) types.PeriodAggregate {
	if cats == nil {
		cats = map[string]float64{}
	}
	return types.PeriodAggregate{
		Source:     source,
		Period:     types.NewMonth(year, month),
		Total:      total,
		ByCategory: cats,
	}
}

func TestBuildLastWinsAndSorts(t *testing.T) {
	aggs := []types.PeriodAggregate{
		agg("Mar24.txt", 2024, time.March, 300, nil),
		agg("Jan24.txt", 2024, time.January, 100, nil),
		agg("Jan24_v2.txt", 2024, time.January, 120, nil),
		agg("Fev24.txt", 2024, time.February, 200, nil),
	}

	s := Build(aggs)

	assert.Equal(t, []types.Month{
		types.NewMonth(2024, time.January),
		types.NewMonth(2024, time.February),
		types.NewMonth(2024, time.March),
	}, s.Months())
	assert.Equal(t, []float64{120, 200, 300}, s.Values())
}

func TestBuildEmpty(t *testing.T) {
	assert.Empty(t, Build(nil))
	assert.Empty(t, Categories(nil))
	assert.Empty(t, BuildCategory(nil, "Saúde"))
}

func TestBuildCategory(t *testing.T) {
	aggs := []types.PeriodAggregate{
		agg("Jan24.txt", 2024, time.January, 10, map[string]float64{"Saúde": 4, "Educação": 6}),
		agg("Fev24.txt", 2024, time.February, 5, map[string]float64{"Saúde": 5}),
		agg("Mar24.txt", 2024, time.March, 9, map[string]float64{"Saúde": 1, "Educação": 8}),
		agg("Mar24_v2.txt", 2024, time.March, 7, map[string]float64{"Saúde": 7}),
	}

	assert.Equal(t, []float64{4, 5, 7}, BuildCategory(aggs, "Saúde").Values())

	edu := BuildCategory(aggs, "Educação")
	assert.Equal(t, []types.Month{types.NewMonth(2024, time.January)}, edu.Months(),
		"the superseded March file does not leak into the category series")

	assert.Equal(t, []string{"Educação", "Saúde"}, Categories(aggs))
}

func TestCollapse(t *testing.T) {
	apr := types.NewMonth(2024, time.April)
	may := types.NewMonth(2024, time.May)

	s := Collapse([]types.Point{
		{Month: may, Value: 1},
		{Month: apr, Value: 2},
		{Month: may, Value: 3},
	})

	assert.Equal(t, types.MonthlySeries{{Month: apr, Value: 2}, {Month: may, Value: 3}}, s)
}

func TestCheckHistory(t *testing.T) {
	two := Build([]types.PeriodAggregate{
		agg("Jan24.txt", 2024, time.January, 1, nil),
		agg("Fev24.txt", 2024, time.February, 2, nil),
	})
	err := CheckHistory(two, MinHistory)
	assert.True(t, errors.Is(err, types.ErrInsufficientHistory))
	assert.ErrorContains(t, err, "2 of 3")

	three := append(two, types.Point{Month: types.NewMonth(2024, time.March), Value: 3})
	assert.NoError(t, CheckHistory(three, MinHistory))
}
