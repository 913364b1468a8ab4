// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package refservice

import (
	"github.com/diffeo/go-odata/uri"
)

const (
	employeesSet = "Employees"
	roomsSet     = "Rooms"
	navRoom      = "ne_Room"
	navEmployees = "nr_Employees"

	namespace = "RefScenario"
)

// Schema describes the resources of the reference service.
var Schema = &uri.Schema{
	EntitySets: map[string]*uri.EntitySet{
		employeesSet: {
			Name: employeesSet,
			Key:  "EmployeeId",
			Properties: func() map[string]*uri.Property {
				props := uri.SimpleProperties("EmployeeId", "EmployeeName", "Age", "RoomId", "EntryDate")
				props["Location"] = &uri.Property{
					Name:    "Location",
					Complex: uri.SimpleProperties("City", "Country"),
				}
				return props
			}(),
			Navigation: map[string]*uri.Navigation{
				navRoom: {Name: navRoom, Target: roomsSet},
			},
			Media: true,
		},
		roomsSet: {
			Name:       roomsSet,
			Key:        "Id",
			Properties: uri.SimpleProperties("Id", "Name", "Seats"),
			Navigation: map[string]*uri.Navigation{
				navEmployees: {Name: navEmployees, Target: employeesSet, Many: true},
			},
		},
	},
	FunctionImports: map[string]*uri.FunctionImport{
		"OldestEmployee":     {Name: "OldestEmployee", Returns: uri.ReturnEntity, HTTPMethod: "GET", EntitySet: employeesSet},
		"AllLocations":       {Name: "AllLocations", Returns: uri.ReturnComplexCollection, HTTPMethod: "GET"},
		"MostCommonLocation": {Name: "MostCommonLocation", Returns: uri.ReturnComplex, HTTPMethod: "GET"},
		"AllNames":           {Name: "AllNames", Returns: uri.ReturnPrimitiveCollection, HTTPMethod: "GET"},
		"MaximalAge":         {Name: "MaximalAge", Returns: uri.ReturnPrimitive, HTTPMethod: "GET"},
	},
}

// navigationOwner maps each navigation property to the set that
// declares it.
var navigationOwner = map[string]string{
	navRoom:      employeesSet,
	navEmployees: roomsSet,
}

// metadataDocument is the EDMX rendering of Schema.
const metadataDocument = `<?xml version="1.0" encoding="utf-8"?>
<edmx:Edmx Version="1.0" xmlns:edmx="http://schemas.microsoft.com/ado/2007/06/edmx">
  <edmx:DataServices m:DataServiceVersion="2.0" xmlns:m="http://schemas.microsoft.com/ado/2007/08/dataservices/metadata">
    <Schema Namespace="RefScenario" xmlns="http://schemas.microsoft.com/ado/2008/09/edm">
      <EntityType Name="Employee" m:HasStream="true">
        <Key><PropertyRef Name="EmployeeId"/></Key>
        <Property Name="EmployeeId" Type="Edm.String" Nullable="false"/>
        <Property Name="EmployeeName" Type="Edm.String"/>
        <Property Name="Age" Type="Edm.Int32"/>
        <Property Name="RoomId" Type="Edm.String"/>
        <Property Name="Location" Type="RefScenario.c_Location"/>
        <Property Name="EntryDate" Type="Edm.DateTime" Nullable="true"/>
        <NavigationProperty Name="ne_Room" Relationship="RefScenario.r_Employees_Room" FromRole="r_Employees" ToRole="r_Room"/>
      </EntityType>
      <EntityType Name="Room">
        <Key><PropertyRef Name="Id"/></Key>
        <Property Name="Id" Type="Edm.String" Nullable="false"/>
        <Property Name="Name" Type="Edm.String"/>
        <Property Name="Seats" Type="Edm.Int16"/>
        <NavigationProperty Name="nr_Employees" Relationship="RefScenario.r_Employees_Room" FromRole="r_Room" ToRole="r_Employees"/>
      </EntityType>
      <ComplexType Name="c_Location">
        <Property Name="City" Type="Edm.String"/>
        <Property Name="Country" Type="Edm.String"/>
      </ComplexType>
      <Association Name="r_Employees_Room">
        <End Type="RefScenario.Employee" Multiplicity="*" Role="r_Employees"/>
        <End Type="RefScenario.Room" Multiplicity="1" Role="r_Room"/>
      </Association>
      <EntityContainer Name="Container1" m:IsDefaultEntityContainer="true">
        <EntitySet Name="Employees" EntityType="RefScenario.Employee"/>
        <EntitySet Name="Rooms" EntityType="RefScenario.Room"/>
        <AssociationSet Name="Employee_Room" Association="RefScenario.r_Employees_Room">
          <End EntitySet="Employees" Role="r_Employees"/>
          <End EntitySet="Rooms" Role="r_Room"/>
        </AssociationSet>
        <FunctionImport Name="OldestEmployee" ReturnType="RefScenario.Employee" EntitySet="Employees" m:HttpMethod="GET"/>
        <FunctionImport Name="AllLocations" ReturnType="Collection(RefScenario.c_Location)" m:HttpMethod="GET"/>
        <FunctionImport Name="MostCommonLocation" ReturnType="RefScenario.c_Location" m:HttpMethod="GET"/>
        <FunctionImport Name="AllNames" ReturnType="Collection(Edm.String)" m:HttpMethod="GET"/>
        <FunctionImport Name="MaximalAge" ReturnType="Edm.Int16" m:HttpMethod="GET"/>
      </EntityContainer>
    </Schema>
  </edmx:DataServices>
</edmx:Edmx>
`
