package predictor

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

var (
	ErrEmptyTrainingSet      = errors.New("training set is empty")
	ErrDegenerateTrainingSet = errors.New("training set contains non-finite client counts")
)

// Params configures the epsilon-SVR with RBF kernel.
type Params struct {
	C         float64
	Epsilon   float64
	Gamma     float64
	Tolerance float64
}

func DefaultParams() Params {
	return Params{
		C:         100,
		Epsilon:   0.1,
		Gamma:     1.0,
		Tolerance: 1e-3,
	}
}

func (p Params) validate() error {
	switch {
	case p.C <= 0:
		return fmt.Errorf("C must be positive, got %v", p.C)
	case p.Epsilon < 0:
		return fmt.Errorf("epsilon must not be negative, got %v", p.Epsilon)
	case p.Gamma <= 0:
		return fmt.Errorf("gamma must be positive, got %v", p.Gamma)
	case p.Tolerance <= 0:
		return fmt.Errorf("tolerance must be positive, got %v", p.Tolerance)
	}
	return nil
}

// Model standardizes features with training statistics and fits a fresh
// regressor on every call. It keeps no state between calls.
type Model struct {
	params Params
}

func NewModel(params Params) (*Model, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}
	return &Model{params: params}, nil
}

// Evaluation scores a fit on the rows held out from it.
type Evaluation struct {
	TrainRows int
	TestRows  int
	MAE       float64
	RMSE      float64
}

// FitPredict trains on train and returns one prediction per future row.
// Predictions are not clamped.
func (m *Model) FitPredict(train, future []FeatureRow) ([]float64, error) {
	if len(train) == 0 {
		return nil, ErrEmptyTrainingSet
	}
	target := make([]float64, len(train))
	for i, r := range train {
		if math.IsNaN(r.ClientCount) || math.IsInf(r.ClientCount, 0) {
			return nil, fmt.Errorf("row %s: %w", r.Timestamp.Format("2006-01-02T15:04"), ErrDegenerateTrainingSet)
		}
		target[i] = r.ClientCount
	}

	trainX := featureMatrix(train)
	scaler := FitScaler(trainX)
	svr := fitSVR(rowsOf(scaler.Transform(trainX)), target, m.params)

	if len(future) == 0 {
		return []float64{}, nil
	}
	futureX := rowsOf(scaler.Transform(featureMatrix(future)))
	out := make([]float64, len(futureX))
	for i, x := range futureX {
		out[i] = svr.predict(x)
	}
	return out, nil
}

// Backtest fits on the leading rows in time order and scores the trailing
// holdout fraction.
func (m *Model) Backtest(rows []FeatureRow, holdout float64) (Evaluation, error) {
	if holdout <= 0 || holdout >= 1 {
		return Evaluation{}, fmt.Errorf("holdout must be in (0, 1), got %v", holdout)
	}
	testRows := int(math.Ceil(float64(len(rows)) * holdout))
	trainRows := len(rows) - testRows
	if trainRows == 0 || testRows == 0 {
		return Evaluation{}, fmt.Errorf("%d rows cannot be split with holdout %v: %w", len(rows), holdout, ErrEmptyTrainingSet)
	}

	train, test := rows[:trainRows], rows[trainRows:]
	predicted, err := m.FitPredict(train, test)
	if err != nil {
		return Evaluation{}, err
	}

	var absSum, sqSum float64
	for i, r := range test {
		diff := predicted[i] - r.ClientCount
		absSum += math.Abs(diff)
		sqSum += diff * diff
	}
	n := float64(testRows)
	return Evaluation{
		TrainRows: trainRows,
		TestRows:  testRows,
		MAE:       absSum / n,
		RMSE:      math.Sqrt(sqSum / n),
	}, nil
}

func featureMatrix(rows []FeatureRow) *mat.Dense {
	const cols = 3
	data := make([]float64, 0, len(rows)*cols)
	for _, r := range rows {
		data = append(data, r.features()...)
	}
	return mat.NewDense(len(rows), cols, data)
}

func rowsOf(m *mat.Dense) [][]float64 {
	r, _ := m.Dims()
	out := make([][]float64, r)
	for i := range out {
		out[i] = mat.Row(nil, i, m)
	}
	return out
}
