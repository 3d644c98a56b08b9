package mocks

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Source --dir ../domain/leaderboard --output domain/leaderboard --outpkg leaderboardmock --filename source_mock.go
