package mock

import (
	context "context"
	reflect "reflect"

	appraisal "github.com/tcgnakama/pricewatch/pricewatch/appraisal"
	gomock "go.uber.org/mock/gomock"
)

// MockFetcher is a mock of Fetcher interface.
type MockFetcher struct {
	ctrl     *gomock.Controller
	recorder *MockFetcherMockRecorder
	isgomock struct{}
}

// MockFetcherMockRecorder is the mock recorder for MockFetcher.
type MockFetcherMockRecorder struct {
	mock *MockFetcher
}

// NewMockFetcher creates a new mock instance.
func NewMockFetcher(ctrl *gomock.Controller) *MockFetcher {
	mock := &MockFetcher{ctrl: ctrl}
	mock.recorder = &MockFetcherMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockFetcher) EXPECT() *MockFetcherMockRecorder {
	return m.recorder
}

// Fetch mocks base method.
func (m *MockFetcher) Fetch(ctx context.Context, identity appraisal.CardIdentity) []appraisal.PriceCandidate {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Fetch", ctx, identity)
	ret0, _ := ret[0].([]appraisal.PriceCandidate)
	return ret0
}

// Fetch indicates an expected call of Fetch.
func (mr *MockFetcherMockRecorder) Fetch(ctx, identity any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Fetch", reflect.TypeOf((*MockFetcher)(nil).Fetch), ctx, identity)
}

// Name mocks base method.
func (m *MockFetcher) Name() string {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Name")
	ret0, _ := ret[0].(string)
	return ret0
}

// Name indicates an expected call of Name.
func (mr *MockFetcherMockRecorder) Name() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Name", reflect.TypeOf((*MockFetcher)(nil).Name))
}

// MockOracle is a mock of Oracle interface.
type MockOracle struct {
	ctrl     *gomock.Controller
	recorder *MockOracleMockRecorder
	isgomock struct{}
}

// MockOracleMockRecorder is the mock recorder for MockOracle.
type MockOracleMockRecorder struct {
	mock *MockOracle
}

// NewMockOracle creates a new mock instance.
func NewMockOracle(ctrl *gomock.Controller) *MockOracle {
	mock := &MockOracle{ctrl: ctrl}
	mock.recorder = &MockOracleMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockOracle) EXPECT() *MockOracleMockRecorder {
	return m.recorder
}

// Pick mocks base method.
func (m *MockOracle) Pick(ctx context.Context, query string, candidates []appraisal.PriceCandidate) ([]int, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Pick", ctx, query, candidates)
	ret0, _ := ret[0].([]int)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// Pick indicates an expected call of Pick.
func (mr *MockOracleMockRecorder) Pick(ctx, query, candidates any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Pick", reflect.TypeOf((*MockOracle)(nil).Pick), ctx, query, candidates)
}
