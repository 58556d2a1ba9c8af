// Package mocks provides testify mocks for the nvs interfaces.
package mocks

import mock "github.com/stretchr/testify/mock"

// MockBackend is an autogenerated mock type for the Backend type
type MockBackend struct {
	mock.Mock
}

type MockBackend_Expecter struct {
	mock *mock.Mock
}

func (_m *MockBackend) EXPECT() *MockBackend_Expecter {
	return &MockBackend_Expecter{mock: &_m.Mock}
}

// Close provides a mock function with no fields
func (_m *MockBackend) Close() error {
	ret := _m.Called()

	if len(ret) == 0 {
		panic("no return value specified for Close")
	}

	var r0 error
	if rf, ok := ret.Get(0).(func() error); ok {
		r0 = rf()
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// MockBackend_Close_Call is a *mock.Call that shadows Run/Return methods with type explicit version for method 'Close'
type MockBackend_Close_Call struct {
	*mock.Call
}

// Close is a helper method to define mock.On call
func (_e *MockBackend_Expecter) Close() *MockBackend_Close_Call {
	return &MockBackend_Close_Call{Call: _e.mock.On("Close")}
}

func (_c *MockBackend_Close_Call) Run(run func()) *MockBackend_Close_Call {
	_c.Call.Run(func(args mock.Arguments) {
		run()
	})
	return _c
}

func (_c *MockBackend_Close_Call) Return(_a0 error) *MockBackend_Close_Call {
	_c.Call.Return(_a0)
	return _c
}

func (_c *MockBackend_Close_Call) RunAndReturn(run func() error) *MockBackend_Close_Call {
	_c.Call.Return(run)
	return _c
}

// Delete provides a mock function with given fields: key
func (_m *MockBackend) Delete(key string) error {
	ret := _m.Called(key)

	if len(ret) == 0 {
		panic("no return value specified for Delete")
	}

	var r0 error
	if rf, ok := ret.Get(0).(func(string) error); ok {
		r0 = rf(key)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// MockBackend_Delete_Call is a *mock.Call that shadows Run/Return methods with type explicit version for method 'Delete'
type MockBackend_Delete_Call struct {
	*mock.Call
}

// Delete is a helper method to define mock.On call
//   - key string
func (_e *MockBackend_Expecter) Delete(key interface{}) *MockBackend_Delete_Call {
	return &MockBackend_Delete_Call{Call: _e.mock.On("Delete", key)}
}

func (_c *MockBackend_Delete_Call) Run(run func(key string)) *MockBackend_Delete_Call {
	_c.Call.Run(func(args mock.Arguments) {
		run(args[0].(string))
	})
	return _c
}

func (_c *MockBackend_Delete_Call) Return(_a0 error) *MockBackend_Delete_Call {
	_c.Call.Return(_a0)
	return _c
}

func (_c *MockBackend_Delete_Call) RunAndReturn(run func(string) error) *MockBackend_Delete_Call {
	_c.Call.Return(run)
	return _c
}

// Erase provides a mock function with no fields
func (_m *MockBackend) Erase() error {
	ret := _m.Called()

	if len(ret) == 0 {
		panic("no return value specified for Erase")
	}

	var r0 error
	if rf, ok := ret.Get(0).(func() error); ok {
		r0 = rf()
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// MockBackend_Erase_Call is a *mock.Call that shadows Run/Return methods with type explicit version for method 'Erase'
type MockBackend_Erase_Call struct {
	*mock.Call
}

// Erase is a helper method to define mock.On call
func (_e *MockBackend_Expecter) Erase() *MockBackend_Erase_Call {
	return &MockBackend_Erase_Call{Call: _e.mock.On("Erase")}
}

func (_c *MockBackend_Erase_Call) Run(run func()) *MockBackend_Erase_Call {
	_c.Call.Run(func(args mock.Arguments) {
		run()
	})
	return _c
}

func (_c *MockBackend_Erase_Call) Return(_a0 error) *MockBackend_Erase_Call {
	_c.Call.Return(_a0)
	return _c
}

func (_c *MockBackend_Erase_Call) RunAndReturn(run func() error) *MockBackend_Erase_Call {
	_c.Call.Return(run)
	return _c
}

// Get provides a mock function with given fields: key
func (_m *MockBackend) Get(key string) ([]byte, error) {
	ret := _m.Called(key)

	if len(ret) == 0 {
		panic("no return value specified for Get")
	}

	var r0 []byte
	var r1 error
	if rf, ok := ret.Get(0).(func(string) ([]byte, error)); ok {
		return rf(key)
	}
	if rf, ok := ret.Get(0).(func(string) []byte); ok {
		r0 = rf(key)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).([]byte)
		}
	}

	if rf, ok := ret.Get(1).(func(string) error); ok {
		r1 = rf(key)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// MockBackend_Get_Call is a *mock.Call that shadows Run/Return methods with type explicit version for method 'Get'
type MockBackend_Get_Call struct {
	*mock.Call
}

// Get is a helper method to define mock.On call
//   - key string
func (_e *MockBackend_Expecter) Get(key interface{}) *MockBackend_Get_Call {
	return &MockBackend_Get_Call{Call: _e.mock.On("Get", key)}
}

func (_c *MockBackend_Get_Call) Run(run func(key string)) *MockBackend_Get_Call {
	_c.Call.Run(func(args mock.Arguments) {
		run(args[0].(string))
	})
	return _c
}

func (_c *MockBackend_Get_Call) Return(_a0 []byte, _a1 error) *MockBackend_Get_Call {
	_c.Call.Return(_a0, _a1)
	return _c
}

func (_c *MockBackend_Get_Call) RunAndReturn(run func(string) ([]byte, error)) *MockBackend_Get_Call {
	_c.Call.Return(run)
	return _c
}

// Open provides a mock function with given fields: namespace
func (_m *MockBackend) Open(namespace string) error {
	ret := _m.Called(namespace)

	if len(ret) == 0 {
		panic("no return value specified for Open")
	}

	var r0 error
	if rf, ok := ret.Get(0).(func(string) error); ok {
		r0 = rf(namespace)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// MockBackend_Open_Call is a *mock.Call that shadows Run/Return methods with type explicit version for method 'Open'
type MockBackend_Open_Call struct {
	*mock.Call
}

// Open is a helper method to define mock.On call
//   - namespace string
func (_e *MockBackend_Expecter) Open(namespace interface{}) *MockBackend_Open_Call {
	return &MockBackend_Open_Call{Call: _e.mock.On("Open", namespace)}
}

func (_c *MockBackend_Open_Call) Run(run func(namespace string)) *MockBackend_Open_Call {
	_c.Call.Run(func(args mock.Arguments) {
		run(args[0].(string))
	})
	return _c
}

func (_c *MockBackend_Open_Call) Return(_a0 error) *MockBackend_Open_Call {
	_c.Call.Return(_a0)
	return _c
}

func (_c *MockBackend_Open_Call) RunAndReturn(run func(string) error) *MockBackend_Open_Call {
	_c.Call.Return(run)
	return _c
}

// Put provides a mock function with given fields: key, value
func (_m *MockBackend) Put(key string, value []byte) error {
	ret := _m.Called(key, value)

	if len(ret) == 0 {
		panic("no return value specified for Put")
	}

	var r0 error
	if rf, ok := ret.Get(0).(func(string, []byte) error); ok {
		r0 = rf(key, value)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// MockBackend_Put_Call is a *mock.Call that shadows Run/Return methods with type explicit version for method 'Put'
type MockBackend_Put_Call struct {
	*mock.Call
}

// Put is a helper method to define mock.On call
//   - key string
//   - value []byte
func (_e *MockBackend_Expecter) Put(key interface{}, value interface{}) *MockBackend_Put_Call {
	return &MockBackend_Put_Call{Call: _e.mock.On("Put", key, value)}
}

func (_c *MockBackend_Put_Call) Run(run func(key string, value []byte)) *MockBackend_Put_Call {
	_c.Call.Run(func(args mock.Arguments) {
		run(args[0].(string), args[1].([]byte))
	})
	return _c
}

func (_c *MockBackend_Put_Call) Return(_a0 error) *MockBackend_Put_Call {
	_c.Call.Return(_a0)
	return _c
}

func (_c *MockBackend_Put_Call) RunAndReturn(run func(string, []byte) error) *MockBackend_Put_Call {
	_c.Call.Return(run)
	return _c
}

// NewMockBackend creates a new instance of MockBackend. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
// The first argument is typically a *testing.T value.
func NewMockBackend(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockBackend {
	mock := &MockBackend{}
	mock.Mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}
