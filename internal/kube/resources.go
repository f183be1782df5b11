package kube

import (
	"k8s.io/apimachinery/pkg/runtime/schema"
)

// Group is the API group of every console resource.
const Group = "appstudio.redhat.com"

// ApplicationLabel links components and snapshots to their application.
const ApplicationLabel = "appstudio.openshift.io/application"

var (
	ApplicationGVR = schema.GroupVersionResource{Group: Group, Version: "v1alpha1", Resource: "applications"}
	ComponentGVR   = schema.GroupVersionResource{Group: Group, Version: "v1alpha1", Resource: "components"}
	SnapshotGVR    = schema.GroupVersionResource{Group: Group, Version: "v1alpha1", Resource: "snapshots"}
	ScenarioGVR    = schema.GroupVersionResource{Group: Group, Version: "v1beta1", Resource: "integrationtestscenarios"}
)

// ConsoleResources lists the kinds the console reads and cleans up, with
// their list kinds for fake clients.
var ConsoleResources = map[schema.GroupVersionResource]string{
	ApplicationGVR: "ApplicationList",
	ComponentGVR:   "ComponentList",
	SnapshotGVR:    "SnapshotList",
	ScenarioGVR:    "IntegrationTestScenarioList",
}
