package cfg

type MockLoader struct{}

func NewMockLoader() (*MockLoader, error) {
	return &MockLoader{}, nil
}

func (yl *MockLoader) Load() (*Config, error) {
	return &Config{
		// App
		App: App{
			Name:    "github-graph-crawler",
			Version: "0.0.1",
		},

		// Mysql
		Mysql: Mysql{
			Host:                  "127.0.0.1",
			Password:              "root",
			Username:              "root",
			Port:                  "3306",
			Database:              "github_graph",
			MaxIdleConnection:     10,
			MaxOpenConnection:     100,
			MaxLifeTimeConnection: 3600,
		},

		// GithubApi
		GithubApi: GithubApi{
			ApiKeys:            []string{""},
			GraphqlUrl:         "https://api.github.com/graphql",
			RestUrl:            "https://api.github.com",
			RateLimitThreshold: 100,
			LightTimeoutSec:    10,
			HeavyTimeoutSec:    30,
			MaxRetries:         5,
			RequestsPerSecond:  10,
		},

		// Crawl
		Crawl: Crawl{
			Topic:           "tensorflow",
			TopRepos:        100,
			MinContributors: 5,
			MinCommits:      1,
			MaxCommitPages:  100,
		},

		// Storage
		Storage: Storage{
			CheckpointDir: "checkpoints",
			CsvDir:        "csv_output",
		},

		// Kafka
		Kafka: Kafka{
			Brokers: []string{"127.0.0.1:9092"},
			Producer: KafkaProducer{
				TopicRepo:   "crawler.repos",
				TopicUser:   "crawler.users",
				TopicCollab: "crawler.collabs",
			},
		},
	}, nil
}
