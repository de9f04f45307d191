package restapi

import (
	"net/http"

	"irisboard.dev/internal/buildinfo"
	"irisboard.dev/internal/models"
)

func (api *RestAPI) configHandler(w http.ResponseWriter, r *http.Request) {
	gitProps := models.GitProperties{
		GitBranch:                buildinfo.Branch,
		GitBuildTime:             buildinfo.BuildTime,
		GitBuildVersion:          buildinfo.Version,
		GitCommitId:              buildinfo.CommitHash,
		GitCommitTime:            buildinfo.CommitTime,
		GitDirty:                 buildinfo.Dirty,
		GitCommitIdAbbrev:        buildinfo.ShortHash(),
		GitBuildHost:             buildinfo.Host,
		GitBuildUserName:         buildinfo.UserName,
		GitRemoteOriginUrl:       buildinfo.RemoteURL,
		GitCommitMessageShort:    buildinfo.CommitMessage,
		GitCommitIdDescribeShort: buildinfo.Version,
	}

	configEntry := models.ConfigModel{
		GitProperties: gitProps,
		Id:            "irisboard",
		Name:          "IRIS Board",
		UpstreamURL:   api.UpstreamConfig.BaseURL,
		Timezone:      api.location().String(),
	}
	if api.Catalog != nil {
		configEntry.StationCount = len(api.Catalog.Stations())
	}

	response := models.NewEntryResponse(
		configEntry,
		models.NewEmptyReferences(),
		api.clock(),
	)

	api.sendResponse(w, r, response)
}
