package models

type GitProperties struct {
	GitBranch                string `json:"git.branch"`
	GitBuildHost             string `json:"git.build.host"`
	GitBuildTime             string `json:"git.build.time"`
	GitBuildUserName         string `json:"git.build.user.name"`
	GitBuildVersion          string `json:"git.build.version"`
	GitCommitId              string `json:"git.commit.id"`
	GitCommitIdAbbrev        string `json:"git.commit.id.abbrev"`
	GitCommitIdDescribeShort string `json:"git.commit.id.describe-short"`
	GitCommitMessageShort    string `json:"git.commit.message.short"`
	GitCommitTime            string `json:"git.commit.time"`
	GitDirty                 string `json:"git.dirty"`
	GitRemoteOriginUrl       string `json:"git.remote.origin.url"`
}

// ConfigModel describes the running instance and the upstream it reads from.
type ConfigModel struct {
	GitProperties GitProperties `json:"gitProperties"`
	Id            string        `json:"id"`
	Name          string        `json:"name"`
	UpstreamURL   string        `json:"upstreamUrl"`
	Timezone      string        `json:"timezone"`
	StationCount  int           `json:"stationCount"`
}
