package policies

import (
	"encoding/json"
	"fmt"

	"github.com/zeu5/lab-rl/util"
	"gonum.org/v1/gonum/mat"
)

// QTable is a dense |S|x|A| table of action values, rows are state indices
type QTable struct {
	table *mat.Dense
}

// NewQTable creates a zero filled table
func NewQTable(states, actions int) *QTable {
	return &QTable{
		table: mat.NewDense(states, actions, nil),
	}
}

func (q *QTable) Dims() (int, int) {
	return q.table.Dims()
}

func (q *QTable) Get(state, action int) float64 {
	return q.table.At(state, action)
}

func (q *QTable) Set(state, action int, val float64) {
	q.table.Set(state, action, val)
}

// MaxAmong returns the action with the highest value among the given ones.
// Ties go to the action that comes first in actions.
func (q *QTable) MaxAmong(state int, actions []int) (int, float64, bool) {
	if len(actions) == 0 {
		return 0, 0, false
	}
	maxAction := actions[0]
	maxVal := q.table.At(state, maxAction)
	for _, a := range actions[1:] {
		if val := q.table.At(state, a); val > maxVal {
			maxAction = a
			maxVal = val
		}
	}
	return maxAction, maxVal, true
}

// IsZero reports whether no entry has been updated away from zero
func (q *QTable) IsZero() bool {
	r, c := q.table.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if q.table.At(i, j) != 0 {
				return false
			}
		}
	}
	return true
}

func (q *QTable) Clone() *QTable {
	return &QTable{
		table: mat.DenseCopyOf(q.table),
	}
}

func (q *QTable) Row(state int) []float64 {
	return mat.Row(nil, state, q.table)
}

func (q *QTable) MarshalBinary() ([]byte, error) {
	return q.table.MarshalBinary()
}

func (q *QTable) UnmarshalBinary(data []byte) error {
	table := &mat.Dense{}
	if err := table.UnmarshalBinary(data); err != nil {
		return err
	}
	q.table = table
	return nil
}

// Record writes the non zero rows of the table as json
func (q *QTable) Record(filePath string) error {
	r, _ := q.table.Dims()
	out := make(map[string][]float64)
	for i := 0; i < r; i++ {
		row := q.Row(i)
		for _, v := range row {
			if v != 0 {
				out[fmt.Sprintf("%d", i)] = row
				break
			}
		}
	}
	bs, err := json.Marshal(out)
	if err != nil {
		return err
	}
	return util.WriteToFile(filePath, string(bs))
}

func (q *QTable) String() string {
	return fmt.Sprintf("%v", mat.Formatted(q.table, mat.Squeeze()))
}
