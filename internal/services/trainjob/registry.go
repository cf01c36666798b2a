package trainjob

import (
	"fmt"

	"treeline/internal/services"
)

// xgboostVersion is the framework container tag submitted when no explicit
// image is configured.
const xgboostVersion = "1.7-1"

// xgboostAccounts maps a region to the registry account that hosts the
// managed XGBoost framework container in that region.
var xgboostAccounts = map[string]string{
	"ap-northeast-1": "354813040037",
	"ap-northeast-2": "366743142698",
	"ap-south-1":     "720646828776",
	"ap-southeast-1": "121021644041",
	"ap-southeast-2": "783357654285",
	"ca-central-1":   "341280168497",
	"eu-central-1":   "492215442770",
	"eu-north-1":     "662702820516",
	"eu-west-1":      "141502667606",
	"eu-west-2":      "764974769150",
	"eu-west-3":      "659782779980",
	"sa-east-1":      "737474898029",
	"us-east-1":      "683313688378",
	"us-east-2":      "257758044811",
	"us-west-1":      "746614075791",
	"us-west-2":      "246618743249",
}

// ImageURI resolves the XGBoost container image for a region.
func ImageURI(region string) (string, error) {
	account, ok := xgboostAccounts[region]
	if !ok {
		return "", services.Wrap(services.ErrConfiguration, "submit", "resolve image",
			fmt.Sprintf("no XGBoost container registry known for region %q; set training.image explicitly", region), nil)
	}
	return fmt.Sprintf("%s.dkr.ecr.%s.amazonaws.com/sagemaker-xgboost:%s", account, region, xgboostVersion), nil
}
