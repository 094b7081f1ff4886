package client

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type InstanceUrlTestSuite struct {
	suite.Suite
}

func TestInstanceUrlTestSuite(t *testing.T) {
	t.Parallel()
	suite.Run(t, new(InstanceUrlTestSuite))
}

func (s *InstanceUrlTestSuite) TestPublicHostGetsHttps() {
	// act
	actual, err := NormalizeInstance("example.com")

	// assert
	s.NoError(err)
	s.Equal("https://example.com", actual)
}

func (s *InstanceUrlTestSuite) TestPrivateHostsGetHttp() {
	hosts := []string{
		"localhost",
		"localhost:8080",
		"127.0.0.1",
		"127.0.0.1:9000",
		"10.1.2.3",
		"172.16.0.1",
		"172.31.255.255",
		"192.168.0.10",
	}

	for _, host := range hosts {
		// act
		actual, err := NormalizeInstance(host)

		// assert
		s.NoError(err)
		s.Equal("http://"+host, actual, "host %s", host)
	}
}

func (s *InstanceUrlTestSuite) TestNonPrivate172RangeGetsHttps() {
	// act
	actual, err := NormalizeInstance("172.15.0.1")

	// assert
	s.NoError(err)
	s.Equal("https://172.15.0.1", actual)
}

func (s *InstanceUrlTestSuite) TestUserSchemeIsDiscarded() {
	// act
	actual, err := NormalizeInstance("http://example.com")

	// assert
	s.NoError(err)
	s.Equal("https://example.com", actual)
}

func (s *InstanceUrlTestSuite) TestTrailingSlashesStripped() {
	// act
	actual, err := NormalizeInstance("example.com/api///")

	// assert
	s.NoError(err)
	s.Equal("https://example.com/api", actual)
}

func (s *InstanceUrlTestSuite) TestNormalizationIsIdempotent() {
	// arrange
	once, err := NormalizeInstance("HTTP://EXAMPLE.COM/API/")
	s.Require().NoError(err)

	// act
	twice, err := NormalizeInstance(once)

	// assert
	s.NoError(err)
	s.Equal(once, twice)
}

func (s *InstanceUrlTestSuite) TestHostCasePreservedButComparedInsensitively() {
	// arrange
	upper, err := NormalizeInstance("HTTP://EXAMPLE.COM/API/")
	s.Require().NoError(err)
	lower, err := NormalizeInstance("example.com/api")
	s.Require().NoError(err)

	// assert
	s.Equal("https://EXAMPLE.COM/API", upper)
	s.NotEqual(upper, lower)
	s.True(InstanceEqual(upper, lower))
}

func (s *InstanceUrlTestSuite) TestEmptyHostFails() {
	// act
	_, err := NormalizeInstance("   ")

	// assert
	s.ErrorIs(err, ErrInvalidCredentials)
}
