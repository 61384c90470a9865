package cfg

type (
	App struct {
		Name    string
		Version string
	}

	Mysql struct {
		Host                  string
		Port                  string
		Username              string
		Password              string
		Database              string
		MaxIdleConnection     int
		MaxOpenConnection     int
		MaxLifeTimeConnection int
	}

	// GithubApi chứa cấu hình cho tầng client gọi GitHub API.
	// ApiKeys là danh sách token theo thứ tự, client xoay vòng key khi quota thấp.
	GithubApi struct {
		ApiKeys            []string
		GraphqlUrl         string
		RestUrl            string
		RateLimitThreshold int
		LightTimeoutSec    int
		HeavyTimeoutSec    int
		MaxRetries         int
		RequestsPerSecond  int
	}

	Crawl struct {
		Topic           string
		TopRepos        int
		MinContributors int
		MinCommits      int
		MaxCommitPages  int
	}

	Storage struct {
		CheckpointDir string
		CsvDir        string
	}

	KafkaProducer struct {
		TopicRepo   string
		TopicUser   string
		TopicCollab string
	}

	Kafka struct {
		Brokers  []string
		Producer KafkaProducer
	}
)

type Config struct {
	App       App
	Mysql     Mysql
	GithubApi GithubApi
	Crawl     Crawl
	Storage   Storage
	Kafka     Kafka
}
